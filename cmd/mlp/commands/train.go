package commands

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/lidmlp/config"
	"github.com/YuminosukeSato/lidmlp/trainer"
)

func trainCmd(g *globals) *cobra.Command {
	var (
		configPath string
		overrides  config.Overrides
	)
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the MLP and print test accuracy next to a random baseline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(configPath, overrides)
			if err != nil {
				return err
			}
			provider, extractor, err := trainer.Collaborators(cfg)
			if err != nil {
				return err
			}
			_, err = trainer.Run(cmd.Context(), cfg, provider, extractor, g.stdout)
			return err
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.Flags().IntVar(&overrides.Epochs, "epochs", 0, "override training.epochs")
	cmd.Flags().StringVar(&overrides.OutputDir, "output-dir", "", "override model.output_dir")
	cmd.Flags().StringVar(&overrides.DataPath, "data", "", "override data.path")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
