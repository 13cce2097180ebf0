package main

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"semestercalc/internal/calculator"
	"semestercalc/internal/storage"
)

func TestParseRowIndex(t *testing.T) {
	index, err := parseRowIndex("3")
	if err != nil {
		t.Fatalf("parseRowIndex returned error: %v", err)
	}
	if index != 2 {
		t.Fatalf("expected 0-based index 2, got %d", index)
	}

	for _, bad := range []string{"0", "-1", "abc", ""} {
		if _, err := parseRowIndex(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestWeightsLabel(t *testing.T) {
	rows := calcForTest(t).Rows()
	if got := weightsLabel(rows[0]); got != "60/40" {
		t.Fatalf("expected default 60/40 label, got %q", got)
	}
}

func TestShowWorkspaceNoSelection(t *testing.T) {
	logger = zap.NewNop()
	calc = calcForTest(t)

	output := captureOutput(t, func() {
		if err := showWorkspace(&cobra.Command{}, nil); err != nil {
			t.Fatalf("showWorkspace returned error: %v", err)
		}
	})

	if !strings.Contains(output, "No history selected") {
		t.Fatalf("expected no-selection notice, got: %s", output)
	}
	if !strings.Contains(output, "Genie Logiciel") {
		t.Fatalf("expected default sheet rows, got: %s", output)
	}
	if !strings.Contains(output, "Semester average:    --") {
		t.Fatalf("expected blank average, got: %s", output)
	}
}

func TestNewHistoryThenSetGrade(t *testing.T) {
	logger = zap.NewNop()
	calc = calcForTest(t)

	output := captureOutput(t, func() {
		if err := newHistory(&cobra.Command{}, []string{"software-engineering-3y-s1-engineering"}); err != nil {
			t.Fatalf("newHistory returned error: %v", err)
		}
	})
	if !strings.Contains(output, "Created and selected") {
		t.Fatalf("expected creation notice, got: %s", output)
	}

	output = captureOutput(t, func() {
		if err := setModule(&cobra.Command{}, []string{"1", "exam", "14"}); err != nil {
			t.Fatalf("setModule returned error: %v", err)
		}
	})
	if !strings.Contains(output, "exam=14") {
		t.Fatalf("expected updated row line, got: %s", output)
	}

	if err := newHistory(&cobra.Command{}, []string{"nope"}); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestModuleSetRequiresSelection(t *testing.T) {
	logger = zap.NewNop()
	calc = calcForTest(t)

	if err := setModule(&cobra.Command{}, []string{"1", "exam", "14"}); err == nil {
		t.Fatal("expected error without a selected history")
	}
}

func calcForTest(t *testing.T) *calculator.Calculator {
	t.Helper()
	c, err := calculator.New(calculator.Options{
		Gateway:         storage.NewMemory(),
		HistoryDebounce: time.Millisecond,
		PersistDebounce: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("calculator.New returned error: %v", err)
	}
	t.Cleanup(func() {
		calc = nil
		_ = c.Close()
	})
	return c
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	origOut := os.Stdout
	rOut, wOut, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = wOut

	fn()

	wOut.Close()
	os.Stdout = origOut

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rOut); err != nil {
		t.Fatalf("failed to read captured output: %v", err)
	}
	return buf.String()
}
