// cmd/aircontrolx/roles_test.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aircontrolx/aircontrolx/rand"
)

func TestRunAllRoles(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	rc := roleConfig{
		role:        "all",
		facility:    fastConfig(),
		fifoDir:     dir,
		auditPath:   filepath.Join(dir, "audit.log"),
		summaryPath: filepath.Join(dir, "summary.log"),
		script: strings.NewReader(`add arr PIA
add dep AirBlue
add arr FedEx
run
pay PIA
pay FedEx
`),
		output: &out,
		linger: 200 * time.Millisecond,
		rand:   rand.MakeSeeded(3),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := runRoles(ctx, rc, testLogger()); err != nil {
		t.Fatal(err)
	}
	if ctx.Err() != nil {
		t.Fatal("roles did not finish in time")
	}

	got := out.String()
	if !strings.Contains(got, "Simulation complete.") {
		t.Errorf("run did not complete:\n%s", got)
	}
	if strings.Contains(got, "Error:") {
		t.Errorf("script reported errors:\n%s", got)
	}

	summary, err := os.ReadFile(rc.summaryPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"ARR001", "DEP002", "ARR003"} {
		if !bytes.Contains(summary, []byte("Flight "+id)) {
			t.Errorf("summary missing %s:\n%s", id, summary)
		}
	}

	// Flights are randomized into the envelope's margins when they change
	// phase, so every run yields violation notices.
	audit, err := os.ReadFile(rc.auditPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(audit, []byte("[AVN]")) {
		t.Errorf("no violations audited:\n%s", audit)
	}
}

func TestUnknownRole(t *testing.T) {
	rc := roleConfig{role: "tower", fifoDir: t.TempDir()}
	if err := runRoles(context.Background(), rc, testLogger()); err == nil {
		t.Error("unknown role accepted")
	}
}
