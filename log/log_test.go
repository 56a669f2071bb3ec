// log/log_test.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func records(t *testing.T, b *bytes.Buffer) []map[string]any {
	t.Helper()
	var recs []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(b.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("%q: %v", line, err)
		}
		recs = append(recs, m)
	}
	return recs
}

func TestLevels(t *testing.T) {
	for _, tc := range []struct {
		level  string
		expect []string
	}{
		{level: "debug", expect: []string{"d", "i", "w", "e"}},
		{level: "", expect: []string{"i", "w", "e"}},
		{level: "warn", expect: []string{"w", "e"}},
		{level: "error", expect: []string{"e"}},
	} {
		var b bytes.Buffer
		lg := NewWriter(&b, tc.level)
		lg.Debug("d")
		lg.Info("i")
		lg.Warnf("%s", "w")
		lg.Errorf("%s", "e")

		var got []string
		for _, r := range records(t, &b) {
			got = append(got, r["msg"].(string))
			if _, ok := r["callstack"]; !ok {
				t.Errorf("%s: record %q has no callstack", tc.level, r["msg"])
			}
		}
		if strings.Join(got, ",") != strings.Join(tc.expect, ",") {
			t.Errorf("level %q: got %v, expected %v", tc.level, got, tc.expect)
		}
	}
}

func TestWith(t *testing.T) {
	var b bytes.Buffer
	lg := NewWriter(&b, "info").With(slog.String("flight", "ARR001"))
	lg.Infof("entered %s", "Approach")

	recs := records(t, &b)
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0]["flight"] != "ARR001" || recs[0]["msg"] != "entered Approach" {
		t.Errorf("unexpected record %v", recs[0])
	}
}

func TestNilLogger(t *testing.T) {
	var lg *Logger
	lg.Debug("dropped")
	lg.Infof("dropped %d", 1)
	if lg.With("k", "v") != nil {
		t.Error("With on a nil logger should return nil")
	}
}

func TestCallstack(t *testing.T) {
	fr := func() []StackFrame { return Callstack(nil) }()
	if len(fr) == 0 {
		t.Fatal("empty callstack")
	}
	if !strings.Contains(fr[0].String(), "log_test.go:") {
		t.Errorf("unexpected caller frame %s", fr[0])
	}
}

type named string

func (n named) LogValue() slog.Value { return slog.StringValue(strings.ToUpper(string(n))) }

func TestAnyPointerSlice(t *testing.T) {
	var b bytes.Buffer
	lg := NewWriter(&b, "info")
	lg.Info("flights", AnyPointerSlice("ids", []named{"arr001", "dep002"}))

	recs := records(t, &b)
	ids, ok := recs[0]["ids"].(map[string]any)
	if !ok || ids["0"] != "ARR001" || ids["1"] != "DEP002" {
		t.Errorf("unexpected group %v", recs[0]["ids"])
	}
}
