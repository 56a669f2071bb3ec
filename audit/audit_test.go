// audit/audit_test.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package audit

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestRecord(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.now = func() time.Time { return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC) }

	if err := l.Record("fine", "ticket %d issued to %s\n", 1, "PIA"); err != nil {
		t.Fatal(err)
	}
	if got, expect := buf.String(), "2025-03-14 09:26:53 [FINE] ticket 1 issued to PIA\n"; got != expect {
		t.Errorf("got %q, expected %q", got, expect)
	}
}

func TestAppendAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	for i := range 2 {
		l, err := Open(path)
		if err != nil {
			t.Fatal(err)
		}
		fmt.Fprintf(l, "line %d\n", i)
		if err := l.Close(); err != nil {
			t.Fatal(err)
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "line 0\nline 1\n" {
		t.Errorf("unexpected ledger contents %q", b)
	}
}

func TestConcurrentRecordsAreWholeLines(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 50 {
				l.Record("settle", "writer %d record %d", i, j)
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 400 {
		t.Fatalf("got %d lines", len(lines))
	}
	for _, line := range lines {
		if !strings.Contains(line, "[SETTLE] writer ") {
			t.Errorf("interleaved line %q", line)
		}
	}
}
