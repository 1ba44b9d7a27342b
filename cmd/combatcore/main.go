// Command combatcore validates attacks and resolves velocity overrides for a
// game host. The host talks to it over stdin/stdout, one command per line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

// module defs - set at build time via ldflags
var (
	CurrentVersion = "0.0.1"
	BuildDate      = "unknown"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "combatcore:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("combatcore", pflag.ContinueOnError)
	configDir := flags.StringP("config-dir", "c", ".", "directory containing combatcore.cfg.json")
	showVersion := flags.BoolP("version", "v", false, "print the version and exit")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if *showVersion {
		fmt.Printf("combatcore %s (built %s)\n", CurrentVersion, BuildDate)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(*configDir)
	if err != nil {
		return err
	}
	defer a.shutdown()

	return a.serve(ctx, os.Stdin, os.Stdout)
}
