package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fmueller/voxclone/internal/analytics"
	"github.com/fmueller/voxclone/internal/audio"
	"github.com/fmueller/voxclone/internal/catalog"
	"github.com/fmueller/voxclone/internal/inference"
	"github.com/fmueller/voxclone/internal/platform"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type convertOptions struct {
	artist       string
	preset       string
	pitchPredict bool
	f0Method     string
	transpose    int
	noiseScale   float64
	output       string
	play         bool
	metricsFile  string
}

// displayError prints the short user-facing message while keeping the cause
// reachable through errors.Is.
type displayError struct {
	err error
}

func (e displayError) Error() string {
	return inference.Message(e.err)
}

func (e displayError) Unwrap() error {
	return e.err
}

func newConvertCmd(app *appState) *cobra.Command {
	opts := convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert <audio-file>",
		Short: "Convert an MP3 or WAV vocal track into an artist voice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := app.convertAudio(cmd.Context(), args[0], opts, cmd.Flags().Changed)
			if err != nil {
				return err
			}

			if opts.play {
				playFn := app.playFn
				if playFn == nil {
					return errors.New("audio playback is not configured")
				}
				if err := playFn(cmd.Context(), result.AudioPath); err != nil {
					app.log().Warn("playback failed", zap.String("audio", result.AudioPath), zap.Error(err))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.artist, "artist", "a", "", "Artist voice to convert into (id or name, see `voxclone models`)")
	cmd.Flags().StringVar(&opts.preset, "preset", "", "Tuning preset: singing or rapping (defaults to config, then singing)")
	cmd.Flags().BoolVar(&opts.pitchPredict, "pitch-predict", false, "Predict pitch from the input instead of following it")
	cmd.Flags().StringVar(&opts.f0Method, "f0-method", "", "Pitch extraction method: crepe, dio, crepe-tiny, parselmouth or harvest")
	cmd.Flags().IntVar(&opts.transpose, "transpose", 0, "Pitch shift in semitones, clamped to -12..12")
	cmd.Flags().Float64Var(&opts.noiseScale, "noise-scale", 0, "Noise scale passed to the model")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Also copy the converted audio to this file or directory")
	cmd.Flags().BoolVar(&opts.play, "play", false, "Play the converted audio when done")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus text metrics for this run to a file")
	return cmd
}

func (a *appState) convertAudio(ctx context.Context, audioPath string, opts convertOptions, changed func(string) bool) (inference.ConversionResult, error) {
	candidate, err := inference.LoadCandidate(audioPath)
	if err != nil {
		return inference.ConversionResult{}, err
	}
	a.adviseOnInput(candidate)

	if err := a.cfg.Validate(); err != nil {
		return inference.ConversionResult{}, err
	}

	outputDir, err := platform.ResolveOutputDir(a.cfg.OutputDir)
	if err != nil {
		return inference.ConversionResult{}, err
	}
	store, err := inference.NewStore(outputDir, byteProgress(a.progressEnabled(), "Saving", os.Stderr))
	if err != nil {
		return inference.ConversionResult{}, err
	}

	converterFn := a.converterFn
	if converterFn == nil {
		converterFn = a.newClient
	}
	converter, err := converterFn(a.cfg)
	if err != nil {
		return inference.ConversionResult{}, err
	}

	var metrics *analytics.MetricsSink
	sink := analytics.Sink(analytics.LogSink{Logger: a.log()})
	if opts.metricsFile != "" {
		metrics = analytics.NewMetricsSink()
		sink = analytics.Multi(sink, metrics)
	}

	workflow, err := inference.NewWorkflow(inference.WorkflowOptions{
		Converter: converter,
		Store:     store,
		Analytics: sink,
		Logger:    a.log(),
	})
	if err != nil {
		return inference.ConversionResult{}, err
	}

	if err := a.configureWorkflow(workflow, opts, changed); err != nil {
		return inference.ConversionResult{}, err
	}

	if _, err := workflow.Drop(candidate); err != nil {
		return inference.ConversionResult{}, fmt.Errorf("%s: %w", inference.Message(err), err)
	}

	tuning := workflow.Tuning()
	a.log().Info("converting...",
		zap.String("audio", candidate.Name),
		zap.String("artist", opts.artist),
		zap.String("preset", string(workflow.Preset())),
		zap.String("f0_method", string(tuning.F0Method)),
		zap.Int("transpose", tuning.Transpose),
	)
	stopSpinner := startSpinner(a.progressEnabled(), "Converting")
	result, err := workflow.Submit(ctx)
	stopSpinner()

	if metrics != nil {
		if werr := metrics.WriteTextfile(opts.metricsFile); werr != nil {
			a.log().Warn("writing metrics failed", zap.String("path", opts.metricsFile), zap.Error(werr))
		}
	}
	if err != nil {
		return inference.ConversionResult{}, displayError{err: err}
	}

	fmt.Fprintln(a.outWriter(), result.AudioPath)

	if opts.output != "" {
		exported, err := store.Export(result, opts.output)
		if err != nil {
			return inference.ConversionResult{}, err
		}
		a.log().Info("converted audio exported", zap.String("path", exported))
		fmt.Fprintln(a.outWriter(), exported)
	}

	return result, nil
}

// configureWorkflow applies the preset first and then any tuning flag the
// user set explicitly, so individual flags refine the preset.
func (a *appState) configureWorkflow(workflow *inference.Workflow, opts convertOptions, changed func(string) bool) error {
	if strings.TrimSpace(opts.artist) != "" {
		model, err := catalog.Resolve(opts.artist)
		if err != nil {
			return err
		}
		if err := workflow.SelectModel(model.ID); err != nil {
			return err
		}
	}

	preset := strings.TrimSpace(opts.preset)
	if preset == "" {
		preset = a.cfg.Preset
	}
	if preset != "" {
		if err := workflow.ApplyPreset(inference.Preset(preset)); err != nil {
			return err
		}
	}

	if changed == nil {
		return nil
	}
	if changed("pitch-predict") {
		workflow.SetPitchPredict(opts.pitchPredict)
	}
	if changed("f0-method") {
		if err := workflow.SetF0Method(inference.F0Method(opts.f0Method)); err != nil {
			return err
		}
	}
	if changed("transpose") {
		if applied := workflow.SetTranspose(opts.transpose); applied != opts.transpose {
			a.log().Warn("transpose clamped", zap.Int("requested", opts.transpose), zap.Int("applied", applied))
		}
	}
	if changed("noise-scale") {
		workflow.SetNoiseScale(opts.noiseScale)
	}
	return nil
}

// adviseOnInput warns about WAV input that is unlikely to convert well. It
// never blocks a submission.
func (a *appState) adviseOnInput(candidate inference.Candidate) {
	if candidate.MIMEType != "audio/wav" {
		return
	}

	info, err := audio.InspectWAV(candidate.Data)
	if err != nil {
		a.log().Debug("could not inspect wav input", zap.String("audio", candidate.Name), zap.Error(err))
		return
	}
	for _, advisory := range audio.Advisories(info, audio.DefaultSilenceDBFS) {
		a.log().Warn(advisory, zap.String("audio", candidate.Name), zap.Duration("duration", info.Duration))
	}
}
