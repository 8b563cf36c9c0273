package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/fmueller/voxclone/internal/catalog"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newModelsCmd(app *appState) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the artist voices available for conversion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tARTIST\tTRAINED BY\tSTEPS")
			for _, model := range catalog.Models() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", model.ID, model.DisplayName, model.Creator, model.TrainingSteps)
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("write model list: %w", err)
			}
			app.log().Debug("listed models", zap.Int("count", len(catalog.Models())))
			return nil
		},
	}
}
