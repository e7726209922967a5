package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	blade "github.com/dangdungcntt/go-blade/v2"
	"github.com/dangdungcntt/go-blade/v2/internal/config"
)

// app is shared by the subcommands.
type app struct {
	v        *viper.Viper
	cfgFile  string
	logLevel string
	logger   *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:           "bladec",
		Short:         "Render, compile and serve Blade templates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(a.logLevel)); err != nil {
				return fmt.Errorf("bad log level %q", a.logLevel)
			}
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", os.Getenv("BLADE_CONFIG_FILE"), "config file (yaml)")
	flags.StringVarP(&a.logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
	flags.StringSlice("views", nil, "template directories, searched in order")
	flags.String("compiled", "", "directory for compiled artifacts")
	flags.String("mode", "", "compile mode: auto, slow, fast or debug")
	flags.Bool("pipes", false, "enable pipe filters in echo tags")
	flags.Bool("strict", false, "reject unknown directives")
	for key, flag := range map[string]string{
		"template_paths": "views",
		"compiled_path":  "compiled",
		"mode":           "mode",
		"pipes":          "pipes",
		"strict":         "strict",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(newRenderCmd(a), newCompileCmd(a), newServeCmd(a))
	return root
}

// engine builds an engine from the config file, environment and flags.
func (a *app) engine(reg prometheus.Registerer) (*blade.Engine, error) {
	cfg, err := config.LoadWith(a.v, a.cfgFile)
	if err != nil {
		return nil, err
	}
	if len(cfg.TemplatePaths) == 0 {
		cfg.TemplatePaths = []string{"."}
	}
	for i, p := range cfg.TemplatePaths {
		if abs, err := filepath.Abs(p); err == nil {
			cfg.TemplatePaths[i] = abs
		}
	}
	opts := []blade.Option{blade.WithLogger(a.logger)}
	if reg != nil {
		opts = append(opts, blade.WithRegisterer(reg))
	}
	e, err := blade.NewFromConfig(cfg, opts...)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("engine ready",
		slog.String("views", strings.Join(cfg.TemplatePaths, ",")),
		slog.String("mode", cfg.Mode.String()))
	return e, nil
}
