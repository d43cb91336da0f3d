package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/finddoc/internal/cache"
	"github.com/harrison/finddoc/internal/config"
	"github.com/harrison/finddoc/internal/logger"
	"github.com/harrison/finddoc/internal/pathutil"
	"github.com/harrison/finddoc/internal/scanner"
)

// app bundles the state every command needs: loaded config, expanded
// roots, the cache directory and a logger.
type app struct {
	cfg        *config.Config
	configPath string
	roots      []string
	cacheDir   *cache.Dir
	log        *logger.ConsoleLogger
}

// loadApp resolves the config path from flags, loads and validates the
// configuration, and opens the cache directory.
func loadApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		var err error
		configPath, err = config.DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	roots, err := cfg.ExpandedRoots()
	if err != nil {
		return nil, err
	}

	cacheDir, err := config.CacheDir()
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:        cfg,
		configPath: configPath,
		roots:      roots,
		cacheDir:   cache.New(cacheDir),
		log:        logger.New(cmd.ErrOrStderr(), cfg.LogLevel),
	}, nil
}

// requireRoots fails with guidance when no roots are configured yet.
func (a *app) requireRoots() error {
	if len(a.roots) == 0 {
		return fmt.Errorf("no roots configured in %s; add one with 'finddoc add PATH'", a.configPath)
	}
	return nil
}

// scanOptions builds scanner options from the config.
func (a *app) scanOptions() (scanner.Options, error) {
	ignore, err := a.cfg.IgnoreSet()
	if err != nil {
		return scanner.Options{}, err
	}
	return scanner.Options{
		Workers:  a.cfg.ScanWorkers(),
		SkipDirs: a.cfg.SkipDirs,
		Ignore:   ignore,
	}, nil
}

// ignoreSet is a convenience for commands that filter outside a scan.
func (a *app) ignoreSet() (*pathutil.IgnoreSet, error) {
	return a.cfg.IgnoreSet()
}
