package commands

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/lidmlp/config"
	"github.com/YuminosukeSato/lidmlp/evaluation"
	"github.com/YuminosukeSato/lidmlp/trainer"
)

func wiliCmd(g *globals) *cobra.Command {
	var (
		configPath string
		resultFile string
		modelPath  string
		dataPath   string
	)
	cmd := &cobra.Command{
		Use:   "wili",
		Short: "Write predictions for the WiLI test split",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFile("config", configPath); err != nil {
				return err
			}
			if modelPath != "" {
				return requireFile("model", modelPath)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(configPath, config.Overrides{DataPath: dataPath})
			if err != nil {
				return err
			}
			provider, extractor, err := trainer.Collaborators(cfg)
			if err != nil {
				return err
			}
			_, err = trainer.RunWiLI(cmd.Context(), cfg, provider, extractor, resultFile, modelPath)
			return err
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&resultFile, "result_file", evaluation.DefaultResultFile, "where to write one predicted label per line")
	cmd.Flags().StringVar(&modelPath, "model", "", "trained .h5 model; a fresh network is used when empty")
	cmd.Flags().StringVar(&dataPath, "data", "", "override data.path")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
