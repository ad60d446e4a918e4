package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"telcochurn/churn"
)

func newPredictCmd(opts *rootOptions) *cobra.Command {
	var (
		input   string
		summary bool
	)
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict churn for one JSON record",
		Long: `Reads one customer record as JSON and prints the prediction.
Fields left out take the configured form defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, cfg, err := opts.loader()
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if input != "-" {
				file, err := os.Open(input)
				if err != nil {
					return err
				}
				defer file.Close()
				in = file
			}
			raw, err := churn.DecodeRecord(in)
			if err != nil {
				return err
			}

			predictor, err := churn.NewPredictor(loader,
				churn.WithDefaults(cfg.Form.Defaults),
				churn.WithTimeout(cfg.Model.PredictTimeout),
			)
			if err != nil {
				return err
			}
			result, err := predictor.Predict(cmd.Context(), raw)
			if err != nil {
				return fmt.Errorf("%s: %w", churn.ErrorKind(err), err)
			}

			out := cmd.OutOrStdout()
			if summary {
				_, err = fmt.Fprintln(out, result.Summary())
				return err
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "JSON record file, - for stdin")
	cmd.Flags().BoolVar(&summary, "summary", false, "print the verdict line instead of JSON")
	return cmd
}

func newColumnsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "columns",
		Short: "Print the bundle's feature columns in model order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, _, err := opts.loader()
			if err != nil {
				return err
			}
			bundle, err := loader.Get()
			if err != nil {
				return err
			}
			for _, name := range bundle.Features {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newValidateBundleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-bundle",
		Short: "Load the model bundle and check it fits the record encoding",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, cfg, err := opts.loader()
			if err != nil {
				return err
			}
			bundle, err := loader.Get()
			if err != nil {
				return err
			}
			if w := bundle.Scaler.Width(); w != len(churn.NumericColumns) {
				return fmt.Errorf("scaler expects %d numeric columns, records carry %d", w, len(churn.NumericColumns))
			}

			encodable := make(map[string]bool)
			for _, name := range churn.EncodableColumns() {
				encodable[name] = true
			}
			out := cmd.OutOrStdout()
			unknown := 0
			for _, name := range bundle.Features {
				if !encodable[name] {
					unknown++
					fmt.Fprintf(out, "warning: column %q is never produced by the encoder and stays 0\n", name)
				}
			}

			// A record built from defaults alone must make it through the
			// whole pipeline.
			predictor, err := churn.NewPredictor(loader, churn.WithDefaults(cfg.Form.Defaults))
			if err != nil {
				return err
			}
			if _, err := predictor.Predict(cmd.Context(), churn.RawRecord{}); err != nil {
				return fmt.Errorf("smoke prediction: %w", err)
			}

			fmt.Fprintf(out, "ok: %s, %T, %d columns (%d unknown)\n",
				loader.Path(), bundle.Classifier, len(bundle.Features), unknown)
			return nil
		},
	}
}
