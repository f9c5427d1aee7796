package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/sussybocca/Server.x-2/data"
)

func newCreateCmd() *cobra.Command {
	createCmd := &cobra.Command{
		Use:   "create <url>",
		Short: "Create a new server",
		Long:  `Create a new server at url, either empty or with the tree read from a JSON file`,
		Args:  cobra.ExactArgs(1),
		RunE:  runCreate,
	}

	createCmd.Flags().String("name", "", "display name (defaults to the last part of url)")
	createCmd.Flags().Bool("private", false, "hide the server from suggestions and listings")
	createCmd.Flags().String("from", "", "JSON file holding the initial tree")

	return createCmd
}

func runCreate(cmd *cobra.Command, args []string) (err error) {
	name, err := cmd.Flags().GetString("name")
	if err != nil {
		return fmt.Errorf("failed to get name flag: %w", err)
	}

	private, err := cmd.Flags().GetBool("private")
	if err != nil {
		return fmt.Errorf("failed to get private flag: %w", err)
	}

	from, err := cmd.Flags().GetString("from")
	if err != nil {
		return fmt.Errorf("failed to get from flag: %w", err)
	}

	location := data.Resolve(args[0])
	server := data.NewServer(location, name, !private)

	if from != "" {
		files, err := readTree(from)
		if err != nil {
			return err
		}
		server.Files = files
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

	if err := a.gateway.CreateServer(ctx, server); err != nil {
		return fmt.Errorf("failed to create %s: %w", location, err)
	}

	a.log.Info("Created '%s' on %s gateway", location, a.gateway.Name())
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", locationColor.Sprint(location))

	return nil
}

func readTree(path string) (*data.FileNode, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree: %w", err)
	}

	var files data.FileNode
	if err := json.Unmarshal(b, &files); err != nil {
		return nil, fmt.Errorf("%s: failed to parse tree: %w", path, err)
	}

	return &files, nil
}
