package main

import (
	"fmt"

	"github.com/jzelinskie/cobrautil/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kubev2v/threadpool/internal/builtin"
	"github.com/kubev2v/threadpool/internal/config"
	"github.com/kubev2v/threadpool/pkg/threadpool"
	"github.com/kubev2v/threadpool/pkg/transport"
)

const envPrefix = "THREADPOOL"

const (
	flagConfig        = "config"
	flagPoolSize      = "pool-size"
	flagLogLevel      = "log-level"
	flagLogFormat     = "log-format"
	flagScriptsFolder = "scripts-folder"
	flagImportsFolder = "imports-folder"
	flagStartRetries  = "script-start-retries"
	flagHTTPPort      = "http-port"
	flagServerMode    = "server-mode"
	flagDataFolder    = "data-folder"
)

func NewRootCommand() *cobra.Command {
	defaults := config.NewConfigurationWithOptionsAndDefaults()

	root := &cobra.Command{
		Use:               "threadpool",
		Short:             "Run jobs on a fixed pool of worker threads",
		SilenceUsage:      true,
		PersistentPreRunE: cobrautil.SyncViperPreRunE(envPrefix),
	}

	flags := root.PersistentFlags()
	flags.String(flagConfig, "", "config file (yaml, json or toml)")
	flags.Int(flagPoolSize, defaults.PoolSize, "number of worker threads")
	flags.String(flagLogLevel, defaults.LogLevel, "log level: debug, info, warn, error")
	flags.String(flagLogFormat, defaults.LogFormat, "log format: console or json")
	flags.String(flagScriptsFolder, defaults.Scripts.Folder, "folder of executable scripts")
	flags.String(flagImportsFolder, defaults.Scripts.Imports, "folder function imports are loaded from")
	flags.Uint(flagStartRetries, defaults.Scripts.StartRetries, "attempts to start a busy script")

	root.AddCommand(newRunCommand(), newServeCommand())
	return root
}

// loadConfiguration resolves flags, THREADPOOL_* environment variables and
// the config file, in that order of precedence, on top of the defaults.
// Environment variables were copied into unset flags by the root pre-run.
func loadConfiguration(cmd *cobra.Command) (*config.Configuration, error) {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	if path := v.GetString(flagConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := config.NewConfigurationWithOptionsAndDefaults(
		config.WithPoolSize(v.GetInt(flagPoolSize)),
		config.WithLogLevel(v.GetString(flagLogLevel)),
		config.WithLogFormat(v.GetString(flagLogFormat)),
		config.WithScripts(config.Scripts{
			Folder:       v.GetString(flagScriptsFolder),
			Imports:      v.GetString(flagImportsFolder),
			StartRetries: v.GetUint(flagStartRetries),
		}),
	)

	// serve only flags, zero when the command does not define them
	if port := v.GetInt(flagHTTPPort); port != 0 {
		cfg.Server.HTTPPort = port
	}
	if mode := v.GetString(flagServerMode); mode != "" {
		cfg.Server.ServerMode = mode
	}
	cfg.Store.DataFolder = v.GetString(flagDataFolder)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setupLogger(cfg *config.Configuration) (func(), error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}

	var zcfg zap.Config
	if cfg.LogFormat == config.LogFormatJSON {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	undo := zap.ReplaceGlobals(logger)

	return func() {
		_ = logger.Sync()
		undo()
	}, nil
}

func newPool(cfg *config.Configuration, size int) (*threadpool.Pool, error) {
	opts := []transport.SourceOption{transport.WithRegistry(builtin.Registry())}
	if cfg.Scripts.Folder != "" {
		opts = append(opts, transport.WithScriptRunner(
			transport.NewExecRunner(cfg.Scripts.Folder).WithStartTries(cfg.Scripts.StartRetries),
		))
	}
	if cfg.Scripts.Imports != "" {
		opts = append(opts, transport.WithLoader(transport.DirLoader(cfg.Scripts.Imports)))
	}
	return threadpool.New(size, transport.NewGoroutineSource(opts...))
}
