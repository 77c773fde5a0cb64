package commands

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/lidmlp/config"
	"github.com/YuminosukeSato/lidmlp/pkg/errors"
	"github.com/YuminosukeSato/lidmlp/pkg/log"
)

// globals holds the persistent flags and output streams shared by all
// subcommands.
type globals struct {
	logLevel string
	stdout   io.Writer
	stderr   io.Writer
}

// NewRootCommand builds the mlp command tree writing the report to stdout
// and logs to stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	g := &globals{stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:           "mlp",
		Short:         "Train and evaluate an MLP language identifier",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := g.logLevel
			if level == "" {
				level = "info"
			}
			return log.SetupLogger(level, g.stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides logging.level)")

	root.AddCommand(trainCmd(g), wiliCmd(g))
	return root
}

// Execute runs the CLI with signal-aware cancellation.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
	if err != nil {
		log.GetLogger().Error("Command failed", err)
	}
	return err
}

// loadConfig reads path, applies CLI overrides and reconfigures logging
// for the resulting level.
func (g *globals) loadConfig(path string, o config.Overrides) (*config.Config, error) {
	o.LogLevel = g.logLevel
	cfg, err := config.LoadWithOverrides(path, o)
	if err != nil {
		return nil, err
	}
	if err := log.SetupLogger(cfg.Logging.Level, g.stderr); err != nil {
		return nil, err
	}
	return cfg, nil
}

func requireFile(flag, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, "--%s %s", flag, path)
	}
	if info.IsDir() {
		return errors.NewValidationError(flag, "must be a file", path)
	}
	return nil
}
