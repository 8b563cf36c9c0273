package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/fmueller/voxclone/internal/config"
	"github.com/fmueller/voxclone/internal/inference"
	"github.com/fmueller/voxclone/internal/logging"
	"github.com/fmueller/voxclone/internal/platform"
	"github.com/fmueller/voxclone/internal/player"
	"github.com/fmueller/voxclone/internal/version"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/spf13/cobra"
)

type appState struct {
	verbose    bool
	jsonLogs   bool
	noProgress bool
	configPath string
	endpoint   string
	outputDir  string

	logger *zap.Logger
	cfg    config.Config
	out    io.Writer

	// configDir and lookupEnv override where configuration is read from.
	configDir string
	lookupEnv func(string) (string, bool)

	converterFn func(cfg config.Config) (inference.Converter, error)
	playFn      func(ctx context.Context, path string) error
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(newAppState())
}

func newAppState() *appState {
	app := &appState{
		out: os.Stdout,
	}
	app.converterFn = app.newClient
	local := player.New()
	app.playFn = func(ctx context.Context, path string) error {
		if name, err := local.Name(); err == nil {
			app.log().Debug("playing converted audio", zap.String("player", name), zap.String("audio", path))
		}
		return local.Play(ctx, path)
	}
	return app
}

func newRootCmd(app *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "voxclone",
		Short:         "Convert vocals into a pre-trained artist voice with a remote so-vits service",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup(cmd)
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	bindLoggingFlags(cmd, app)
	bindProgressFlag(cmd, app)
	bindConfigFlags(cmd, app)

	cmd.AddCommand(newConvertCmd(app))
	cmd.AddCommand(newModelsCmd(app))
	cmd.AddCommand(newPresetsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func bindLoggingFlags(cmd *cobra.Command, app *appState) {
	cmd.PersistentFlags().BoolVar(&app.verbose, "verbose", app.verbose, "Enable verbose logs")
	cmd.PersistentFlags().BoolVar(&app.jsonLogs, "json", app.jsonLogs, "Enable JSON logging")
}

func bindProgressFlag(cmd *cobra.Command, app *appState) {
	cmd.PersistentFlags().BoolVar(&app.noProgress, "no-progress", app.noProgress, "Disable progress indicators")
}

func bindConfigFlags(cmd *cobra.Command, app *appState) {
	cmd.PersistentFlags().StringVar(&app.configPath, "config", app.configPath, "Config file (YAML or TOML); defaults to config.yaml in the user config directory")
	cmd.PersistentFlags().StringVar(&app.endpoint, "endpoint", app.endpoint, "Inference endpoint URL")
	cmd.PersistentFlags().StringVar(&app.outputDir, "output-dir", app.outputDir, "Directory where converted audio is stored")
}

func (a *appState) setup(cmd *cobra.Command) error {
	if a.logger == nil {
		logger, err := logging.New(logging.Options{Verbose: a.verbose, JSON: a.jsonLogs})
		if err != nil {
			return fmt.Errorf("initialize logger: %w", err)
		}
		a.logger = logger
	}

	configDir := a.configDir
	if configDir == "" {
		if env, err := platform.CurrentEnv(); err == nil {
			if dir, err := env.ConfigDir(); err == nil {
				configDir = dir
			}
		}
	}

	cfg, err := config.Load(config.Options{
		Path:      a.configPath,
		ConfigDir: configDir,
		LookupEnv: a.lookupEnv,
		Defaults: config.Config{
			Endpoint: inference.DefaultEndpoint,
			Preset:   string(inference.DefaultPreset),
		},
	})
	if err != nil {
		return err
	}

	if strings.TrimSpace(a.endpoint) != "" {
		cfg.Endpoint = strings.TrimSpace(a.endpoint)
	}
	if strings.TrimSpace(a.outputDir) != "" {
		cfg.OutputDir = strings.TrimSpace(a.outputDir)
	}

	a.cfg = cfg
	if cfg.Source != "" {
		a.log().Debug("loaded config", zap.String("path", cfg.Source), zap.String("command", cmd.Name()))
	}
	return nil
}

func (a *appState) newClient(cfg config.Config) (inference.Converter, error) {
	return inference.NewClient(inference.ClientOptions{
		Endpoint:   cfg.Endpoint,
		Token:      cfg.Token,
		UserAgent:  version.UserAgent(),
		HTTPClient: &http.Client{Timeout: cfg.Timeout()},
		Logger:     a.log(),
	})
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func (a *appState) outWriter() io.Writer {
	if a.out == nil {
		return os.Stdout
	}
	return a.out
}
