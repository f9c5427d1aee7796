package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/sussybocca/Server.x-2/config"
	"github.com/sussybocca/Server.x-2/data"
	"github.com/sussybocca/Server.x-2/gateway"
	"github.com/sussybocca/Server.x-2/log"
)

// app holds what every subcommand works with: the merged configuration,
// a logger and an open gateway.
type app struct {
	cfg     *config.Config
	log     *log.Logger
	gateway gateway.Gateway
	timeout time.Duration
}

// loadConfig reads the configuration file and applies the global flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Root().PersistentFlags()

	path, err := flags.GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	var cfg *config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides := map[string]*string{
		"gateway":   &cfg.Gateway.Address,
		"log-level": &cfg.Log.Level,
		"log-file":  &cfg.Log.File,
	}
	for name, target := range overrides {
		value, err := flags.GetString(name)
		if err != nil {
			return nil, fmt.Errorf("failed to get %s flag: %w", name, err)
		}
		if value != "" {
			*target = value
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// newCommandLogger writes to the configured file, or to stderr so that
// command output on stdout stays clean.
func newCommandLogger(cmd *cobra.Command, cfg *config.Config) *log.Logger {
	if cfg.Log.File != "" {
		return log.NewLogger("serverx", log.LoggerOptions{
			Level:      cfg.LogLevel(),
			File:       cfg.Log.File,
			JSON:       cfg.Log.JSON,
			NoTerminal: true,
		})
	}

	return log.NewWriterLogger("serverx", cmd.ErrOrStderr(), cfg.LogLevel())
}

// openApp opens the configured gateway. The logger is owned by the returned
// app and closed together with it.
func openApp(cmd *cobra.Command, cfg *config.Config, logger *log.Logger) (*app, error) {
	timeout, err := cfg.Timeout()
	if err != nil {
		logger.Close()
		return nil, err
	}

	gw, err := gateway.ParseAddress(cfg.Gateway.Address)
	if err != nil {
		logger.Close()
		return nil, err
	}

	if err := gw.Open(cmd.Context()); err != nil {
		logger.Close()
		return nil, fmt.Errorf("failed to open %s gateway: %w", gw.Name(), err)
	}

	logger.Debug("Opened %s gateway", gw.Name())

	return &app{
		cfg:     cfg,
		log:     logger,
		gateway: gw,
		timeout: timeout,
	}, nil
}

// context bounds a single command by the gateway timeout.
func (a *app) context(parent context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(parent)
	}

	return context.WithTimeout(parent, a.timeout)
}

func (a *app) Close() error {
	errs := &data.Errors{}

	// The command context may already be cancelled here
	errs.Add(a.gateway.Close(context.Background()))
	errs.Add(a.log.Close())

	return errs.Errors()
}
