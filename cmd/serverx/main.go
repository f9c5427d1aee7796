package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version can be overridden at build time via -ldflags.
	Version = "0.1.0-dev"

	errorColor = color.New(color.FgRed, color.Bold)
)

// newRootCmd builds the command tree. Running it without a subcommand opens
// the browser.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "serverx [url]",
		Short:         "Browse and edit virtual servers",
		Long:          `Server.X is a browser for virtual servers addressed by server:// locations`,
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runBrowse,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newLsCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newCreateCmd())

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "path of the configuration file")
	rootCmd.PersistentFlags().String("gateway", "", "gateway address, overrides the configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error|fatal)")
	rootCmd.PersistentFlags().String("log-file", "", "write logs to this file")

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		// show already printed the not found notice
		if !errors.Is(err, errServerNotFound) {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorColor.Sprint("error:"), err)
		}

		stop()
		os.Exit(1)
	}
}
