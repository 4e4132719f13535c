package report

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/linkscan/internal/model"
)

func okResult(url string) model.Result {
	return model.Result{URL: url, Kind: model.KindSuccess, StatusCode: 200}
}

func notFoundResult(url, parent string) model.Result {
	return model.Result{URL: url, Parent: parent, Depth: 1, Kind: model.KindHTTPError, StatusCode: 404}
}

func TestLineReporter(t *testing.T) {
	t.Parallel()

	t.Run("quiet prints broken links only", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		r := NewLineReporter(&buf, 0)

		if err := r.Report(okResult("http://example.com/")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := r.Report(notFoundResult("http://example.com/missing", "http://example.com/")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := "BROKEN 404 - http://example.com/missing\n"
		if buf.String() != want {
			t.Errorf("expected %q, got %q", want, buf.String())
		}
	})

	t.Run("verbose prints every link and parents", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		r := NewLineReporter(&buf, 1)

		_ = r.Report(okResult("http://example.com/"))
		_ = r.Report(notFoundResult("http://example.com/missing", "http://example.com/"))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
		}
		if lines[0] != "OK     200 - http://example.com/" {
			t.Errorf("unexpected success line %q", lines[0])
		}
		if !strings.HasSuffix(lines[1], "(found on http://example.com/)") {
			t.Errorf("expected parent in broken line, got %q", lines[1])
		}
	})

	t.Run("network errors show the detail", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		r := NewLineReporter(&buf, 0)
		_ = r.Report(model.Result{URL: "http://down.example/", Kind: model.KindNetworkError, Error: "connection refused"})

		if !strings.Contains(buf.String(), "BROKEN connection refused - http://down.example/") {
			t.Errorf("unexpected output %q", buf.String())
		}
	})

	t.Run("counts and HasBroken", func(t *testing.T) {
		t.Parallel()

		r := NewLineReporter(&bytes.Buffer{}, 0)
		if r.HasBroken() {
			t.Error("expected no broken links before any report")
		}

		_ = r.Report(okResult("http://example.com/"))
		if r.HasBroken() {
			t.Error("expected no broken links after a success")
		}
		_ = r.Report(notFoundResult("http://example.com/x", ""))

		total, broken := r.Counts()
		if total != 2 || broken != 1 {
			t.Errorf("expected 2 total and 1 broken, got %d and %d", total, broken)
		}
		if !r.HasBroken() {
			t.Error("expected HasBroken after a 404")
		}
	})

	t.Run("safe for concurrent use", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		r := NewLineReporter(&buf, 0)

		var wg sync.WaitGroup
		for range 50 {
			wg.Go(func() {
				_ = r.Report(notFoundResult("http://example.com/x", ""))
			})
		}
		wg.Wait()

		if got := strings.Count(buf.String(), "\n"); got != 50 {
			t.Errorf("expected 50 lines, got %d", got)
		}
	})
}

func TestCollector(t *testing.T) {
	t.Parallel()

	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewCollector("http://example.com/", started)

	_ = c.Report(okResult("http://example.com/b"))
	_ = c.Report(notFoundResult("http://example.com/a", "http://example.com/b"))
	_ = c.Report(model.Result{URL: "http://example.com/c", Kind: model.KindHTTPError, StatusCode: 503})

	summary := c.Summary(started.Add(2 * time.Second))

	if summary.Total != 3 {
		t.Errorf("expected 3 results, got %d", summary.Total)
	}
	if summary.ClientErrors != 1 || summary.ServerErrors != 1 || summary.Succeeded != 1 {
		t.Errorf("unexpected counters: %+v", summary)
	}
	if summary.Results[0].URL != "http://example.com/a" {
		t.Errorf("expected results sorted by URL, got %s first", summary.Results[0].URL)
	}
	if summary.Elapsed() != 2*time.Second {
		t.Errorf("expected 2s elapsed, got %s", summary.Elapsed())
	}
}

type failingReporter struct{ err error }

func (f failingReporter) Report(model.Result) error { return f.err }

func TestMultiReporter(t *testing.T) {
	t.Parallel()

	t.Run("forwards to every reporter", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		line := NewLineReporter(&buf, 0)
		collector := NewCollector("http://example.com/", time.Now())

		m := NewMultiReporter(line, collector)
		if err := m.Report(notFoundResult("http://example.com/x", "")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !line.HasBroken() {
			t.Error("expected line reporter to see the result")
		}
		if got := collector.Summary(time.Now()).Total; got != 1 {
			t.Errorf("expected collector to see 1 result, got %d", got)
		}
	})

	t.Run("keeps going after a failure", func(t *testing.T) {
		t.Parallel()

		boom := errors.New("boom")
		collector := NewCollector("http://example.com/", time.Now())

		m := NewMultiReporter(failingReporter{err: boom}, collector)
		err := m.Report(okResult("http://example.com/"))
		if !errors.Is(err, boom) {
			t.Errorf("expected boom, got %v", err)
		}
		if got := collector.Summary(time.Now()).Total; got != 1 {
			t.Errorf("expected collector to still see the result, got %d", got)
		}
	})
}
