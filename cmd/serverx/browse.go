package main

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/sussybocca/Server.x-2/cli/tui"
)

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [url]",
		Short: "Open the browser, optionally on url",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBrowse,
	}
}

// runBrowse starts the terminal browser. Logs only go to the configured
// file while it owns the terminal.
func runBrowse(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := tui.NewDebugLogger(cfg.Log.File, cfg.LogLevel())
	a, err := openApp(cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close())
	}()

	opts := []tui.ModelOption{
		tui.WithLogger(logger),
		tui.WithHome(cfg.Home()),
		tui.WithTimeout(a.timeout),
	}
	if len(args) == 1 {
		opts = append(opts, tui.WithStart(args[0]))
	}

	model, err := tui.NewModel(cmd.Context(), a.gateway, opts...)
	if err != nil {
		return fmt.Errorf("failed to create browser: %w", err)
	}

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(cmd.Context()),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("browser error: %w", err)
	}

	return nil
}
