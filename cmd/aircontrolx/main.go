// cmd/aircontrolx/main.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

// This file contains the implementation of the main() function, which
// sets up logging and configuration and then runs the requested roles
// until they finish or the process is interrupted.

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aircontrolx/aircontrolx/log"
	"github.com/aircontrolx/aircontrolx/rand"
	"github.com/aircontrolx/aircontrolx/sim"
	"github.com/aircontrolx/aircontrolx/util"

	"github.com/apenwarr/fixconsole"
)

var (
	role        = flag.String("role", "all", "process role: all, atc, notice, settlement")
	configFile  = flag.String("config", "", "JSON file with a facility definition")
	fifoDir     = flag.String("fifodir", ".", "directory holding the named pipes between processes")
	auditFile   = flag.String("audit", "avn-audit.log", "audit ledger for violations, fines and settlements")
	summaryFile = flag.String("summary", "simulation-summary.log", "ledger for per-run flight summaries")
	httpAddr    = flag.String("http", "", "address to serve the status page on (e.g. localhost:6502)")
	scriptFile  = flag.String("script", "", "file of commands to run (default: read standard input)")
	seed        = flag.Int64("seed", 0, "random seed; 0 seeds from the clock")
	linger      = flag.Duration("linger", time.Second, "time to let services drain after the script finishes")
	logLevel    = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir      = flag.String("logdir", "", "log file directory")
)

func fatal(lg *log.Logger, format string, args ...any) {
	lg.Errorf(format, args...)
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func loadConfig(lg *log.Logger) sim.Config {
	if *configFile == "" {
		return sim.DefaultConfig()
	}

	b, err := os.ReadFile(*configFile)
	if err != nil {
		fatal(lg, "%s: %v", *configFile, err)
	}

	var e util.ErrorLogger
	e.Push(*configFile)
	cfg := sim.LoadConfig(b, &e)
	e.Pop()
	if e.HaveErrors() {
		e.PrintErrors(lg)
		os.Exit(1)
	}
	return cfg
}

func main() {
	flag.Parse()

	if err := fixconsole.FixConsoleIfNeeded(); err != nil {
		fmt.Printf("FixConsole: %v\n", err)
	}

	// The notice and settlement roles are long-running services.
	lg := log.New(*role == "notice" || *role == "settlement", *logLevel, *logDir)
	checkCommands(consoleCommands, lg)

	r := rand.Make()
	if *seed != 0 {
		r = rand.MakeSeeded(*seed)
	}

	var script io.Reader = os.Stdin
	if *scriptFile != "" {
		f, err := os.Open(*scriptFile)
		if err != nil {
			fatal(lg, "%s: %v", *scriptFile, err)
		}
		defer f.Close()
		script = f
	}

	rc := roleConfig{
		role:        *role,
		facility:    loadConfig(lg),
		fifoDir:     *fifoDir,
		auditPath:   *auditFile,
		summaryPath: *summaryFile,
		httpAddr:    *httpAddr,
		script:      script,
		output:      os.Stdout,
		linger:      *linger,
		rand:        r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runRoles(ctx, rc, lg); err != nil {
		fatal(lg, "%v", err)
	}
}
