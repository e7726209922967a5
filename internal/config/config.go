// Package config loads engine settings from a YAML file and BLADE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	blade "github.com/dangdungcntt/go-blade/v2"
)

// Load reads file (optional) and the environment on top of the defaults.
// BLADE_MODE=debug and BLADE_TEMPLATE_PATHS="a b" are examples.
func Load(file string) (blade.Config, error) {
	v := viper.New()
	return LoadWith(v, file)
}

// LoadWith is Load on a caller supplied viper instance, so command line
// flags bound to it take part.
func LoadWith(v *viper.Viper, file string) (blade.Config, error) {
	cfg := blade.DefaultConfig()
	setDefaults(v, cfg)

	v.SetEnvPrefix("BLADE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return cfg, fmt.Errorf("read config %s: %w", file, err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	// mode accepts names as well as numbers
	mode, err := blade.ParseMode(v.GetString("mode"))
	if err != nil {
		return cfg, err
	}
	cfg.Mode = mode
	cfg.TemplatePaths = v.GetStringSlice("template_paths")

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg blade.Config) {
	v.SetDefault("template_paths", []string{})
	v.SetDefault("compiled_path", cfg.CompiledPath)
	v.SetDefault("file_extension", cfg.FileExtension)
	v.SetDefault("compiled_extension", cfg.CompiledExtension)
	v.SetDefault("mode", cfg.Mode.String())
	v.SetDefault("naming", string(cfg.Naming))
	v.SetDefault("optimize", cfg.Optimize)
	v.SetDefault("pipes", cfg.Pipes)
	v.SetDefault("include_scope", cfg.IncludeScope)
	v.SetDefault("throw_on_error", cfg.ThrowOnError)
	v.SetDefault("strict", cfg.Strict)
	v.SetDefault("raw_tags.open", cfg.RawTags.Open)
	v.SetDefault("raw_tags.close", cfg.RawTags.Close)
	v.SetDefault("escaped_tags.open", cfg.EscapedTags.Open)
	v.SetDefault("escaped_tags.close", cfg.EscapedTags.Close)
	v.SetDefault("content_tags.open", cfg.ContentTags.Open)
	v.SetDefault("content_tags.close", cfg.ContentTags.Close)
}
