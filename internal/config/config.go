package config

import (
	"fmt"
	"slices"
)

//go:generate go run github.com/ecordell/optgen -output zz_generated.configuration.go . Configuration Server Store Scripts

const (
	ServerModeDev  = "dev"
	ServerModeProd = "prod"

	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

type Configuration struct {
	Server    Server  `debugmap:"visible"`
	Store     Store   `debugmap:"visible"`
	Scripts   Scripts `debugmap:"visible"`
	PoolSize  int     `debugmap:"visible" default:"8"`
	LogFormat string  `debugmap:"visible" default:"console"`
	LogLevel  string  `debugmap:"visible" default:"debug"`
}

type Server struct {
	ServerMode string `debugmap:"visible" default:"dev"`
	HTTPPort   int    `debugmap:"visible" default:"8000"`
}

type Store struct {
	// DataFolder holds the job history database. Empty keeps it in memory.
	DataFolder string `debugmap:"visible"`
}

type Scripts struct {
	// Folder holds executable scripts. Empty disables them.
	Folder string `debugmap:"visible"`
	// Imports is the folder function jobs load their imports from.
	Imports      string `debugmap:"visible"`
	StartRetries uint   `debugmap:"visible" default:"5"`
}

func (c *Configuration) Validate() error {
	if c.PoolSize < 1 {
		return fmt.Errorf("pool size must be at least 1, got %d", c.PoolSize)
	}
	if !slices.Contains([]string{ServerModeDev, ServerModeProd}, c.Server.ServerMode) {
		return fmt.Errorf("invalid server mode %q: must be %q or %q", c.Server.ServerMode, ServerModeDev, ServerModeProd)
	}
	if c.Server.HTTPPort < 1 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port %d", c.Server.HTTPPort)
	}
	if !slices.Contains([]string{LogFormatConsole, LogFormatJSON}, c.LogFormat) {
		return fmt.Errorf("invalid log format %q: must be %q or %q", c.LogFormat, LogFormatConsole, LogFormatJSON)
	}
	return nil
}
