package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fmueller/voxclone/internal/inference"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the tuning presets and the values they apply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PRESET\tPITCH PREDICT\tF0 METHOD\tTRANSPOSE\tNOISE SCALE")
			for _, preset := range inference.Presets() {
				tuning, err := inference.PresetTuning(preset)
				if err != nil {
					return err
				}
				label := string(preset)
				if preset == inference.DefaultPreset {
					label += " (default)"
				}
				fmt.Fprintf(w, "%s\t%t\t%s\t%d\t%.2f\n", label, tuning.PitchPredict, tuning.F0Method, tuning.Transpose, tuning.NoiseScale)
			}
			if err := w.Flush(); err != nil {
				return fmt.Errorf("write preset list: %w", err)
			}

			methods := lo.Map(inference.F0Methods(), func(m inference.F0Method, _ int) string { return string(m) })
			fmt.Fprintf(cmd.OutOrStdout(), "\nF0 methods: %s\n", strings.Join(methods, ", "))
			return nil
		},
	}
}
