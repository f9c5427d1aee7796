package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sussybocca/Server.x-2/data"
	"github.com/sussybocca/Server.x-2/editor"
)

var errServerNotFound = errors.New("server not found")

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <url>",
		Short: "Print the name and tree of a server",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
}

func runShow(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	a, err := openApp(cmd, cfg, newCommandLogger(cmd, cfg))
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close())
	}()

	ctx, cancel := a.context(cmd.Context())
	defer cancel()

	location := data.Resolve(args[0])
	server, err := a.gateway.LoadTree(ctx, location)
	if err != nil && !errors.Is(err, data.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", location, err)
	}

	text, err := editor.RenderServer(location, server)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", location, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), text)
	if server == nil {
		return errServerNotFound
	}

	return nil
}
