package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/verify-feedback/internal/model"
)

var feedbackFile string

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Process one hook delivery payload from a file",
	Long:  "Runs a captured event hook delivery through the reconciliation pipeline and prints the summary as JSON. Useful for replaying deliveries that failed in production.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(cfg)
		if err != nil {
			return err
		}

		events, err := readDelivery(feedbackFile)
		if err != nil {
			return err
		}
		zap.L().Info("replaying delivery", zap.Int("events", len(events)))

		summary := env.Reconciler.Reconcile(ctx, events)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

// readDelivery parses a delivery payload from path, or stdin when path
// is "-".
func readDelivery(path string) ([]model.AuthenticationEvent, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "open delivery file")
		}
		defer f.Close()
		r = f
	}

	var payload struct {
		Data struct {
			Events []model.AuthenticationEvent `json:"events"`
		} `json:"data"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, eris.Wrap(err, "decode delivery payload")
	}
	return payload.Data.Events, nil
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackFile, "file", "-", "delivery payload file (use - for stdin)")
	rootCmd.AddCommand(feedbackCmd)
}
