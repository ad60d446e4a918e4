package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"telcochurn/config"
	"telcochurn/ml"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	modelPath  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "telcochurn",
		Short:        "Telco customer churn prediction service",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default config.yaml or ../config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.modelPath, "model", "", "model bundle path (overrides model.path)")

	cmd.AddCommand(
		newServeCmd(opts),
		newPredictCmd(opts),
		newColumnsCmd(opts),
		newValidateBundleCmd(opts),
	)
	return cmd
}

// load resolves the config file and applies the --model override.
func (o *rootOptions) load() (*config.Config, error) {
	cfg, err := config.Load(config.ResolvePath(o.configPath))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if o.modelPath != "" {
		cfg.Model.Path = o.modelPath
	}
	return cfg, nil
}

// loader returns a private loader for one-shot commands.
func (o *rootOptions) loader() (*ml.Loader, *config.Config, error) {
	cfg, err := o.load()
	if err != nil {
		return nil, nil, err
	}
	return ml.NewLoader(cfg.Model.Path), cfg, nil
}
