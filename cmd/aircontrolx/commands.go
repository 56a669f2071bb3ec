// cmd/aircontrolx/commands.go
// Copyright(c) 2025 aircontrolx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"

	av "github.com/aircontrolx/aircontrolx/aviation"
	"github.com/aircontrolx/aircontrolx/log"
	"github.com/aircontrolx/aircontrolx/sim"
)

var (
	ErrUnknownCommand = errors.New("Unknown command")
	ErrUsage          = errors.New("Invalid arguments")
	ErrNoSettlement   = errors.New("Payment service is not available")
)

// Payer settles an airline's outstanding fines.
type Payer interface {
	Pay(ctx context.Context, airline string) (int64, error)
}

// Console executes operator commands against the facility. Commands are
// read one per line; there are no interactive menus.
type Console struct {
	sim      *sim.Sim
	payments Payer // may be nil
	lg       *log.Logger
}

func NewConsole(s *sim.Sim, payments Payer, lg *log.Logger) *Console {
	return &Console{sim: s, payments: payments, lg: lg}
}

type Command interface {
	Name() string
	Usage() string
	Help() string
	Run(ctx context.Context, c *Console, args []string) (string, error)
}

var consoleCommands = []Command{
	&AddCommand{},
	&RunCommand{},
	&PayCommand{},
	&StatusCommand{},
	&AirlinesCommand{},
	&DumpCommand{},
	&HelpCommand{},
}

func checkCommands(cmds []Command, lg *log.Logger) {
	seen := make(map[string]interface{})
	for _, c := range cmds {
		if _, ok := seen[c.Name()]; ok {
			lg.Errorf("%s: command has multiple definitions", c.Name())
		} else {
			seen[c.Name()] = nil
		}
	}
}

func lookupCommand(n string) Command {
	for _, c := range consoleCommands {
		if c.Name() == n {
			return c
		}
	}
	return nil
}

// Execute runs a single command line.
func (c *Console) Execute(ctx context.Context, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}

	cmd := lookupCommand(strings.ToLower(fields[0]))
	if cmd == nil {
		return "", fmt.Errorf("%s: %w", fields[0], ErrUnknownCommand)
	}
	c.lg.Info("command", slog.String("line", line))
	out, err := cmd.Run(ctx, c, fields[1:])
	if errors.Is(err, ErrUsage) {
		err = fmt.Errorf("%w: usage: %s", err, cmd.Usage())
	}
	return out, err
}

// RunScript executes each line of r in turn, writing the results to w.
// Blank lines and lines starting with '#' are skipped. A failing command
// is reported and the script continues.
func (c *Console) RunScript(ctx context.Context, r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fmt.Fprintf(w, "> %s\n", line)
		out, err := c.Execute(ctx, line)
		if out != "" {
			fmt.Fprintln(w, strings.TrimRight(out, "\n"))
		}
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			c.lg.Warn("command failed", slog.String("line", line), slog.Any("error", err))
		}
	}
	return sc.Err()
}

///////////////////////////////////////////////////////////////////////////

type AddCommand struct{}

func (*AddCommand) Name() string  { return "add" }
func (*AddCommand) Usage() string { return "add dep|arr <airline> [priority] [scheduled-seconds]" }
func (*AddCommand) Help() string {
	return "Adds a departure or arrival for the airline (name or roster number) to the wait queues."
}

func (*AddCommand) Run(ctx context.Context, c *Console, args []string) (string, error) {
	if len(args) < 2 {
		return "", ErrUsage
	}

	var req sim.FlightRequest
	switch strings.ToLower(args[0]) {
	case "dep", "departure":
		req.Departure = true
	case "arr", "arrival":
	default:
		return "", ErrUsage
	}

	// Airline names may contain spaces; trailing numeric arguments are
	// the priority and scheduled time.
	name := args[1:]
	var nums []int
	for len(name) > 1 && len(nums) < 2 {
		n, err := strconv.Atoi(name[len(name)-1])
		if err != nil {
			break
		}
		nums = append([]int{n}, nums...)
		name = name[:len(name)-1]
	}
	req.Airline = strings.Join(name, " ")
	if len(nums) > 0 {
		req.Priority = nums[0]
	}
	if len(nums) > 1 {
		req.ScheduledTime = nums[1]
	}

	f, err := c.sim.AddFlight(req)
	if err != nil {
		return "", err
	}
	return "Added " + f.String(), nil
}

type RunCommand struct{}

func (*RunCommand) Name() string  { return "run" }
func (*RunCommand) Usage() string { return "run" }
func (*RunCommand) Help() string {
	return "Dispatches all queued flights and waits for them to finish."
}

func (*RunCommand) Run(ctx context.Context, c *Console, args []string) (string, error) {
	if len(args) != 0 {
		return "", ErrUsage
	}
	if err := c.sim.Run(ctx); err != nil {
		return "", err
	}
	return "Simulation complete.", nil
}

type PayCommand struct{}

func (*PayCommand) Name() string  { return "pay" }
func (*PayCommand) Usage() string { return "pay <airline>" }
func (*PayCommand) Help() string {
	return "Settles all of the airline's unpaid fines and reports the total."
}

func (*PayCommand) Run(ctx context.Context, c *Console, args []string) (string, error) {
	if len(args) == 0 {
		return "", ErrUsage
	}
	if c.payments == nil {
		return "", ErrNoSettlement
	}

	airline := strings.Join(args, " ")
	amount, err := c.payments.Pay(ctx, airline)
	if err != nil {
		return "", err
	}
	if amount == 0 {
		return fmt.Sprintf("No outstanding fines for %s.", airline), nil
	}
	return fmt.Sprintf("Paid Rs.%d for %s.", amount, airline), nil
}

type StatusCommand struct{}

func (*StatusCommand) Name() string  { return "status" }
func (*StatusCommand) Usage() string { return "status" }
func (*StatusCommand) Help() string {
	return "Lists the flights, runway queues and active violations."
}

func (*StatusCommand) Run(ctx context.Context, c *Console, args []string) (string, error) {
	snap := c.sim.Snapshot()

	var b strings.Builder
	if len(snap.Flights) == 0 {
		b.WriteString("No flights.\n")
	} else {
		tw := tabwriter.NewWriter(&b, 0, 1, 2, ' ', 0)
		fmt.Fprintln(tw, "FLIGHT\tAIRLINE\tTYPE\tPHASE\tRUNWAY\tPRI\tWAIT\tFUEL\tAVN")
		for _, f := range snap.Flights {
			id := f.ID
			if f.Emergency {
				id += "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s %s\t%s\t%d\t%ds\t%d%%\t%d\n", id, f.Airline, f.Type,
				f.Phase.Status(), f.Phase, f.Runway, f.Priority, f.EstimatedWait, f.Fuel, f.AVNCount)
		}
		tw.Flush()
	}

	for _, rwy := range av.Runways {
		fmt.Fprintf(&b, "%s: holder %q queue %v\n", rwy, snap.RunwayHolders[rwy], snap.Queues[rwy])
	}
	for _, v := range snap.ActiveViolations() {
		for _, f := range v.Findings {
			fmt.Fprintf(&b, "%s (%s, %s): %s\n", v.FlightID, v.Airline, v.Phase, f.Message)
		}
	}
	return b.String(), nil
}

type AirlinesCommand struct{}

func (*AirlinesCommand) Name() string  { return "airlines" }
func (*AirlinesCommand) Usage() string { return "airlines" }
func (*AirlinesCommand) Help() string {
	return "Lists the airline roster with available aircraft; flights may be added by roster number."
}

func (*AirlinesCommand) Run(ctx context.Context, c *Console, args []string) (string, error) {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 1, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tAIRLINE\tTYPE\tAIRCRAFT\tAVAILABLE")
	for i, al := range c.sim.Airlines() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", i, al.Name, al.Type, al.Aircraft, al.Available)
	}
	tw.Flush()
	return b.String(), nil
}

type DumpCommand struct{}

func (*DumpCommand) Name() string  { return "dump" }
func (*DumpCommand) Usage() string { return "dump" }
func (*DumpCommand) Help() string  { return "Prints the full facility snapshot for debugging." }

func (*DumpCommand) Run(ctx context.Context, c *Console, args []string) (string, error) {
	return c.sim.Snapshot().Dump(), nil
}

type HelpCommand struct{}

func (*HelpCommand) Name() string  { return "help" }
func (*HelpCommand) Usage() string { return "help [command]" }
func (*HelpCommand) Help() string  { return "Describes the available commands." }

func (*HelpCommand) Run(ctx context.Context, c *Console, args []string) (string, error) {
	if len(args) == 1 {
		cmd := lookupCommand(strings.ToLower(args[0]))
		if cmd == nil {
			return "", fmt.Errorf("%s: %w", args[0], ErrUnknownCommand)
		}
		return cmd.Usage() + "\n  " + cmd.Help(), nil
	}

	var b strings.Builder
	for _, cmd := range consoleCommands {
		fmt.Fprintf(&b, "%-50s %s\n", cmd.Usage(), cmd.Help())
	}
	return b.String(), nil
}
