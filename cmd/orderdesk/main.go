package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"orderdesk/internal/app"
	"orderdesk/internal/repl"
)

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:   "orderdesk [command ...]",
		Short: "Order-fulfillment desk simulator",
		Long: "orderdesk simulates an order-fulfillment desk: VIP/Normal orders,\n" +
			"a resizable pool of worker bots, and live status reports.\n\n" +
			"Without arguments it starts an interactive REPL; with arguments it\n" +
			"runs a single desk command and exits (e.g. `orderdesk status`).",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			a, err := app.New(cfgPath)
			if err != nil {
				return err
			}
			a.Start(ctx)
			defer a.Stop(context.Background())

			r := repl.New(a.Desk(), a.Logger(), os.Stdin, os.Stdout)
			if len(args) > 0 {
				// One-shot mode.
				r.Exec(strings.Join(args, " "))
				return nil
			}
			return r.Run(ctx)
		},
	}
	root.Flags().StringVar(&cfgPath, "config", "./config.yaml", "path to config file (yaml or json)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}
