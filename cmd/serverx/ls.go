package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/sussybocca/Server.x-2/data"
	"golang.org/x/sync/errgroup"
)

// maxLoadJobs limits how many trees ls --long loads at once.
const maxLoadJobs = 4

var (
	locationColor = color.New(color.FgCyan, color.Bold)
	dimColor      = color.New(color.Faint)
)

func newLsCmd() *cobra.Command {
	lsCmd := &cobra.Command{
		Use:   "ls",
		Short: "List public servers",
		Args:  cobra.NoArgs,
		RunE:  runLs,
	}

	lsCmd.Flags().BoolP("long", "l", false, "load every server and show its name, node count and size")

	return lsCmd
}

type listing struct {
	location  data.VirtualLocation
	name      string
	nodes     int
	size      int64
	createdAt time.Time
}

func runLs(cmd *cobra.Command, args []string) (err error) {
	long, err := cmd.Flags().GetBool("long")
	if err != nil {
		return fmt.Errorf("failed to get long flag: %w", err)
	}

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

	locations, err := a.gateway.ListPublicLocations(ctx)
	if err != nil {
		return fmt.Errorf("failed to list servers: %w", err)
	}

	out := cmd.OutOrStdout()
	if !long {
		for _, location := range locations {
			fmt.Fprintln(out, locationColor.Sprint(location))
		}
		return nil
	}

	// Results are written by index, no locking needed
	listings := make([]listing, len(locations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxLoadJobs)

	for i, location := range locations {
		g.Go(func() error {
			server, err := a.gateway.LoadTree(gctx, location)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", location, err)
			}

			nodes, size := server.Tree().Stats()
			listings[i] = listing{
				location:  location,
				name:      server.DisplayName,
				nodes:     nodes,
				size:      size,
				createdAt: server.CreatedAt,
			}

			a.log.Debug("Loaded %s with %d nodes", location, nodes)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	for _, l := range listings {
		fmt.Fprintf(out, "%-40s %-24s %6d nodes %10s  %s\n",
			locationColor.Sprint(l.location),
			l.name,
			l.nodes,
			humanize.Bytes(uint64(l.size)),
			dimColor.Sprint(humanize.Time(l.createdAt)),
		)
	}

	return nil
}
