package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nao1215/linkscan/internal/database"
	"github.com/nao1215/linkscan/internal/model"
)

func TestCompareRuns(t *testing.T) {
	t.Parallel()

	previous := database.RunRecord{ID: 1, Seed: "http://example.com/", Total: 4, ClientErrors: 2}
	current := database.RunRecord{ID: 2, Seed: "http://example.com/", Total: 4, ClientErrors: 1, NetworkErrors: 1}

	previousResults := []model.Result{
		{URL: "http://example.com/a", Kind: model.KindHTTPError, StatusCode: 404},
		{URL: "http://example.com/b", Kind: model.KindHTTPError, StatusCode: 404},
		{URL: "http://example.com/c", Kind: model.KindSuccess, StatusCode: 200},
	}
	currentResults := []model.Result{
		{URL: "http://example.com/a", Kind: model.KindSuccess, StatusCode: 200},
		{URL: "http://example.com/b", Kind: model.KindHTTPError, StatusCode: 410},
		{URL: "http://example.com/c", Kind: model.KindNetworkError, Error: "timeout"},
	}

	c := compareRuns(previous, current, previousResults, currentResults)

	if len(c.NewlyBroken) != 1 || c.NewlyBroken[0].URL != "http://example.com/c" {
		t.Errorf("expected /c newly broken, got %+v", c.NewlyBroken)
	}
	if len(c.Resolved) != 1 || c.Resolved[0].URL != "http://example.com/a" {
		t.Errorf("expected /a resolved, got %+v", c.Resolved)
	}
	if len(c.StillBroken) != 1 || c.StillBroken[0].StatusCode != 410 {
		t.Errorf("expected /b still broken with the current status, got %+v", c.StillBroken)
	}
	if c.Direction != directionUnchanged || c.BrokenDelta != 0 {
		t.Errorf("expected unchanged, got %s (%d)", c.Direction, c.BrokenDelta)
	}
}

func TestCompareDirection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		before, after int
		wantDirection string
	}{
		{name: "fewer broken links", before: 3, after: 1, wantDirection: directionImproved},
		{name: "more broken links", before: 1, after: 3, wantDirection: directionWorsened},
		{name: "same count", before: 2, after: 2, wantDirection: directionUnchanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := compareRuns(
				database.RunRecord{ClientErrors: tt.before},
				database.RunRecord{ClientErrors: tt.after},
				nil, nil,
			)
			if c.Direction != tt.wantDirection {
				t.Errorf("expected %s, got %s", tt.wantDirection, c.Direction)
			}
		})
	}
}

func TestFormatDelta(t *testing.T) {
	t.Parallel()

	for delta, want := range map[int]string{3: "+3", -2: "-2", 0: "0"} {
		if got := formatDelta(delta); got != want {
			t.Errorf("formatDelta(%d): expected %q, got %q", delta, want, got)
		}
	}
}

func TestCompareCmd(t *testing.T) {
	t.Parallel()

	var broken atomic.Bool
	broken.Store(true)
	server := newSite(t, &broken)
	dbPath := filepath.Join(t.TempDir(), "links.db")

	if code := run(crawlArgs(t, "--db", dbPath, server.URL), &bytes.Buffer{}, &bytes.Buffer{}); code != exitBroken {
		t.Fatalf("first run: expected exit code %d, got %d", exitBroken, code)
	}
	broken.Store(false)
	if code := run(crawlArgs(t, "--db", dbPath, server.URL), &bytes.Buffer{}, &bytes.Buffer{}); code != exitOK {
		t.Fatalf("second run: expected exit code %d, got %d", exitOK, code)
	}

	// Subtests share the database file and run in order.
	t.Run("text output", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		if code := run([]string{"compare", "--db", dbPath, server.URL}, &stdout, &stderr); code != exitOK {
			t.Fatalf("expected exit code %d, got %d (stderr: %s)", exitOK, code, stderr.String())
		}

		output := stdout.String()
		if !strings.Contains(output, "Status:       improved (-1)") {
			t.Errorf("expected improved status, got:\n%s", output)
		}
		if !strings.Contains(output, "Resolved (1):\n  [404] "+server.URL+"/missing") {
			t.Errorf("expected resolved link, got:\n%s", output)
		}
	})

	t.Run("json output", func(t *testing.T) {
		var stdout bytes.Buffer
		if code := run([]string{"compare", "--db", dbPath, "--json", server.URL}, &stdout, &bytes.Buffer{}); code != exitOK {
			t.Fatalf("expected exit code %d, got %d", exitOK, code)
		}

		var c Comparison
		if err := json.Unmarshal(stdout.Bytes(), &c); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if c.Direction != directionImproved || len(c.Resolved) != 1 || len(c.NewlyBroken) != 0 {
			t.Errorf("unexpected comparison %+v", c)
		}
	})

	t.Run("markdown output", func(t *testing.T) {
		var stdout bytes.Buffer
		if code := run([]string{"compare", "--db", dbPath, "-m", server.URL}, &stdout, &bytes.Buffer{}); code != exitOK {
			t.Fatalf("expected exit code %d, got %d", exitOK, code)
		}
		if !strings.Contains(stdout.String(), "## Resolved (1)") {
			t.Errorf("expected resolved section, got:\n%s", stdout.String())
		}
	})

	t.Run("list runs", func(t *testing.T) {
		var stdout bytes.Buffer
		if code := run([]string{"compare", "--db", dbPath, "--list", server.URL}, &stdout, &bytes.Buffer{}); code != exitOK {
			t.Fatalf("expected exit code %d, got %d", exitOK, code)
		}
		if !strings.Contains(stdout.String(), "(2):") {
			t.Errorf("expected two runs, got:\n%s", stdout.String())
		}
	})

	t.Run("list seeds", func(t *testing.T) {
		var stdout bytes.Buffer
		if code := run([]string{"compare", "--db", dbPath, "-L"}, &stdout, &bytes.Buffer{}); code != exitOK {
			t.Fatalf("expected exit code %d, got %d", exitOK, code)
		}
		if !strings.Contains(stdout.String(), server.URL+"/") {
			t.Errorf("expected seed in list, got:\n%s", stdout.String())
		}
	})

	t.Run("unknown run ID", func(t *testing.T) {
		var stderr bytes.Buffer
		code := run([]string{"compare", "--db", dbPath, "-i", "99", server.URL}, &bytes.Buffer{}, &stderr)
		if code != exitError {
			t.Errorf("expected exit code %d, got %d", exitError, code)
		}
		if !strings.Contains(stderr.String(), "not found") {
			t.Errorf("expected not found error, got %q", stderr.String())
		}
	})
}

func TestCompareCmdErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "db flag is required", args: []string{"compare", "example.com"}, wantErr: "db"},
		{name: "seed is required", args: []string{"compare", "--db", "x.db"}, wantErr: "seed is required"},
		{name: "database must exist", args: []string{"compare", "--db", "/nonexistent/x.db", "example.com"}, wantErr: "database not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var stderr bytes.Buffer
			if code := run(tt.args, &bytes.Buffer{}, &stderr); code != exitError {
				t.Errorf("expected exit code %d, got %d", exitError, code)
			}
			if !strings.Contains(stderr.String(), tt.wantErr) {
				t.Errorf("expected stderr to contain %q, got %q", tt.wantErr, stderr.String())
			}
		})
	}
}
