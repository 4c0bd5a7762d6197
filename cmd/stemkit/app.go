package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/mnohosten/ptstem/pkg/config"
	"github.com/mnohosten/ptstem/pkg/metrics"
	"github.com/mnohosten/ptstem/pkg/registry"
	"github.com/mnohosten/ptstem/pkg/ruledef"
	"github.com/mnohosten/ptstem/pkg/rules"
	"github.com/mnohosten/ptstem/pkg/text"
	"github.com/mnohosten/ptstem/pkg/toolkit"
)

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	configPath string
	algorithm  string
	rulesDirs  []string
	noBuiltin  bool
	logLevel   string
	logFormat  string
}

// app is the toolkit assembled from configuration
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *registry.Registry
	toolkit  *toolkit.Toolkit
	metrics  *metrics.Metrics
}

// loadConfig reads the config file (defaults when none) and applies flag overrides
func (o *globalOptions) loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if o.configPath != "" {
		var err error
		cfg, err = config.LoadFromFile(o.configPath)
		if err != nil {
			return nil, err
		}
	}

	if o.algorithm != "" {
		cfg.Stemming.DefaultAlgorithm = o.algorithm
	}
	if len(o.rulesDirs) > 0 {
		cfg.Rules.Dirs = append(cfg.Rules.Dirs, o.rulesDirs...)
	}
	if o.noBuiltin {
		cfg.Rules.Builtin = false
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Logging.Format = o.logFormat
	}
	return cfg, nil
}

// newApp builds the toolkit described by cfg. Logs go to logOut.
func newApp(cfg *config.Config, logOut io.Writer, withMetrics bool) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := config.NewLogger(cfg.Logging, logOut)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}
	if withMetrics {
		a.metrics = metrics.New("ptstem")
	}

	a.registry = registry.New(registry.WithLogger(logger), registry.WithMetrics(a.metrics))
	if err := a.registerRules(); err != nil {
		return nil, err
	}

	opts := []toolkit.Option{
		toolkit.WithLogger(logger),
		toolkit.WithMetrics(a.metrics),
		toolkit.WithDiacriticRemoval(cfg.Stemming.RemoveDiacritics),
		toolkit.WithIgnore(cfg.Stemming.IgnoreWords...),
	}
	if cfg.Stemming.IgnoreFile != "" {
		words, err := text.LoadWordList(cfg.Stemming.IgnoreFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load ignore list: %w", err)
		}
		opts = append(opts, toolkit.WithIgnore(words...))
	}
	if cfg.Cache.Enabled {
		opts = append(opts, toolkit.WithCache(cfg.Cache.Size, cfg.Cache.TTL))
	}
	a.toolkit = toolkit.New(a.registry, opts...)

	if cfg.Rules.Preload {
		if err := a.registry.Preload(); err != nil {
			return nil, err
		}
	}

	if !a.registry.IsRegistered(cfg.Stemming.DefaultAlgorithm) {
		return nil, &registry.UnknownAlgorithmError{
			Name:      cfg.Stemming.DefaultAlgorithm,
			Available: a.registry.Names(),
		}
	}
	return a, nil
}

// registerRules registers rule directory files, then built-in profiles not
// shadowed by a file of the same name
func (a *app) registerRules() error {
	if len(a.cfg.Rules.Dirs) > 0 {
		sources, err := ruledef.Discover(a.cfg.Rules.Dirs, a.cfg.Rules.Pattern)
		if err != nil {
			return err
		}
		if err := ruledef.RegisterAll(a.registry, sources); err != nil {
			return err
		}
		a.logger.Debug("Registered rule files", slog.Int("count", len(sources)), slog.Any("dirs", a.cfg.Rules.Dirs))
	}

	if !a.cfg.Rules.Builtin {
		return nil
	}
	for _, name := range rules.Builtin {
		if a.registry.IsRegistered(name) {
			a.logger.Info("Rule file overrides built-in profile", slog.String("algorithm", name))
			continue
		}
		loader := ruledef.FSLoader{FS: rules.FS(), Path: name + ".yaml"}
		if err := a.registry.Register(name, loader); err != nil {
			return err
		}
	}
	return nil
}
