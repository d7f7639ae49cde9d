// Package repl is the line-oriented command layer. It only translates text
// commands into desk calls and prints the results; all scheduling decisions
// stay in the desk.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"orderdesk/internal/desk"
	"orderdesk/pkg/logx"
)

const clearScreen = "\033[2J\033[H"

type REPL struct {
	desk *desk.Desk
	log  logx.Logger
	in   io.Reader
	out  io.Writer
}

func New(d *desk.Desk, log logx.Logger, in io.Reader, out io.Writer) *REPL {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &REPL{desk: d, log: log, in: in, out: out}
}

// Run reads commands until exit, EOF, or context cancellation.
func (r *REPL) Run(ctx context.Context) error {
	fmt.Fprintln(r.out, "Type 'help' to see commands. Type 'exit' to quit.")

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(r.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
		close(lines)
	}()

	fmt.Fprint(r.out, "> ")
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				// EOF: treat like exit so scripted input shuts down cleanly.
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if exit := r.Exec(line); exit {
				return nil
			}
			fmt.Fprint(r.out, "> ")
		}
	}
}

// Exec runs a single command line and reports whether it requested exit.
// Also used for one-shot invocations from the CLI.
func (r *REPL) Exec(line string) (exit bool) {
	cmd, err := Parse(line)
	if err != nil {
		if errors.Is(err, ErrEmpty) {
			return false
		}
		fmt.Fprintf(r.out, "ERR: %v\n", err)
		fmt.Fprint(r.out, helpText())
		return false
	}

	switch cmd.Kind {
	case KindHelp:
		fmt.Fprint(r.out, helpText())
	case KindNewOrder:
		v, err := r.desk.NewOrder(cmd.Tier)
		if err != nil {
			fmt.Fprintf(r.out, "ERR: %v\n", err)
			return false
		}
		fmt.Fprintf(r.out, "order %d (%s) created\n", v.ID, v.Priority)
	case KindAddBot:
		id, err := r.desk.AddBot()
		if err != nil {
			fmt.Fprintf(r.out, "ERR: %v\n", err)
			return false
		}
		fmt.Fprintf(r.out, "bot %d added\n", id)
	case KindRemoveBot:
		id, err := r.desk.RemoveBot()
		if err != nil {
			fmt.Fprintf(r.out, "ERR: %v\n", err)
			return false
		}
		fmt.Fprintf(r.out, "bot %d removed\n", id)
	case KindStatus:
		renderStatus(r.out, r.desk.Snapshot())
	case KindClear:
		fmt.Fprint(r.out, clearScreen)
	case KindExit:
		return true
	}
	return false
}
