package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/linkscan/internal/config"
)

func TestNewInitCmd(t *testing.T) {
	t.Parallel()

	cmd := NewInitCmd()

	t.Run("has output flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
		if flag.DefValue != config.DefaultConfigFile {
			t.Errorf("expected default %q, got %q", config.DefaultConfigFile, flag.DefValue)
		}
	})

	t.Run("has force flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("force")
		if flag == nil {
			t.Fatal("expected force flag")
		}
		if flag.Shorthand != "f" {
			t.Errorf("expected shorthand 'f', got %q", flag.Shorthand)
		}
	})
}

func TestRunInitCmd(t *testing.T) {
	t.Parallel()

	t.Run("creates a loadable config file", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), "nested", ".linkscan")

		var stdout bytes.Buffer
		if code := run([]string{"init", "-o", outputPath}, &stdout, &bytes.Buffer{}); code != exitOK {
			t.Fatalf("expected exit code %d, got %d", exitOK, code)
		}

		info, err := os.Stat(outputPath)
		if err != nil {
			t.Fatalf("config file was not created: %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("expected permissions 0600, got %o", perm)
		}
		if !strings.Contains(stdout.String(), outputPath) {
			t.Errorf("expected output to mention %s, got %q", outputPath, stdout.String())
		}

		if _, err := config.LoadConfigFile(outputPath); err != nil {
			t.Errorf("generated file does not load: %v", err)
		}
	})

	t.Run("refuses to overwrite without force", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), ".linkscan")
		if err := os.WriteFile(outputPath, []byte("original"), 0600); err != nil {
			t.Fatal(err)
		}

		var stderr bytes.Buffer
		if code := run([]string{"init", "-o", outputPath}, &bytes.Buffer{}, &stderr); code != exitError {
			t.Errorf("expected exit code %d, got %d", exitError, code)
		}
		if !strings.Contains(stderr.String(), "already exists") {
			t.Errorf("expected already exists error, got %q", stderr.String())
		}

		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != "original" {
			t.Error("file was overwritten")
		}
	})

	t.Run("overwrites with force", func(t *testing.T) {
		t.Parallel()

		outputPath := filepath.Join(t.TempDir(), ".linkscan")
		if err := os.WriteFile(outputPath, []byte("original"), 0600); err != nil {
			t.Fatal(err)
		}

		if code := run([]string{"init", "-f", "-o", outputPath}, &bytes.Buffer{}, &bytes.Buffer{}); code != exitOK {
			t.Fatalf("expected exit code %d, got %d", exitOK, code)
		}

		content, err := os.ReadFile(outputPath)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(content), "linkscan configuration file") {
			t.Error("expected template content")
		}
	})
}
