// Package config defines the configuration structure for the threadpool service.
//
// Configuration is organized into logical sections (Server, Store, Scripts)
// and uses code generation via optgen to create functional option helpers.
//
// # Configuration Structure
//
//	Configuration
//	├── Server         - HTTP server settings
//	├── Store          - Job history storage
//	├── Scripts        - Executable scripts and imports
//	├── PoolSize       - Number of worker threads
//	├── LogFormat      - Logging format
//	└── LogLevel       - Logging verbosity
//
// # Server Configuration
//
//	┌──────────────────┬─────────┬────────────────────────────────────────┐
//	│ Field            │ Default │ Description                            │
//	├──────────────────┼─────────┼────────────────────────────────────────┤
//	│ ServerMode       │ "dev"   │ Server mode: "prod" or "dev"           │
//	│ HTTPPort         │ 8000    │ HTTP server listen port                │
//	└──────────────────┴─────────┴────────────────────────────────────────┘
//
// # Store Configuration
//
//	┌──────────────────┬─────────┬────────────────────────────────────────┐
//	│ Field            │ Default │ Description                            │
//	├──────────────────┼─────────┼────────────────────────────────────────┤
//	│ DataFolder       │ ""      │ DuckDB folder, in memory when empty    │
//	└──────────────────┴─────────┴────────────────────────────────────────┘
//
// # Scripts Configuration
//
//	┌──────────────────┬─────────┬────────────────────────────────────────┐
//	│ Field            │ Default │ Description                            │
//	├──────────────────┼─────────┼────────────────────────────────────────┤
//	│ Folder           │ ""      │ Executable scripts, disabled when empty│
//	│ Imports          │ ""      │ Folder function imports are read from  │
//	│ StartRetries     │ 5       │ Attempts to start a script process     │
//	└──────────────────┴─────────┴────────────────────────────────────────┘
//
// # Code Generation
//
// The package uses optgen to generate functional option helpers:
//
//	//go:generate go run github.com/ecordell/optgen -output zz_generated.configuration.go . Configuration Server Store Scripts
//
// Generated helpers include:
//
//   - NewConfigurationWithOptions(...ConfigurationOption) - Create with options
//   - NewConfigurationWithOptionsAndDefaults(...ConfigurationOption) - Create with defaults + options
//   - WithServer(Server), WithStore(Store), etc. - Set nested structs
//   - DebugMap() - Returns map for debug logging (respects debugmap tags)
//
// # Usage Example
//
//	cfg := config.NewConfigurationWithOptionsAndDefaults(
//	    config.WithPoolSize(4),
//	    config.WithScripts(config.Scripts{Folder: "/opt/scripts"}),
//	    config.WithLogLevel("info"),
//	)
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
//	zap.S().Infow("configuration loaded", "config", cfg.DebugMap())
package config
