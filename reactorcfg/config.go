// Package reactorcfg loads the startup configuration for cmd/reactorctl:
// a small JSON document layered onto a set of compiled-in defaults, the
// way aistore's CLI decodes partial JSON onto an already-populated struct
// rather than requiring every field to be present on disk.
package reactorcfg

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// Config is the full startup configuration for the demo binary.
type Config struct {
	Reactor  ReactorConfig  `json:"reactor"`
	PathSet  PathSetConfig  `json:"pathset"`
	Snapshot SnapshotConfig `json:"snapshot"`
}

// ReactorConfig controls the reactor's preallocation and metrics.
type ReactorConfig struct {
	TimerCapacityHint int  `json:"timer_capacity_hint"`
	EnableMetrics     bool `json:"enable_metrics"`
}

// PathSetConfig controls path validation limits.
type PathSetConfig struct {
	MaxDepth      int `json:"max_depth"`
	MaxPathLength int `json:"max_path_length"`
}

// SnapshotConfig controls the optional debug snapshot keyspace.
type SnapshotConfig struct {
	Enabled bool   `json:"enabled"`
	DBPath  string `json:"db_path"`
}

// Default returns the compiled-in configuration used when no file is
// supplied, or as the base that a file's contents are layered onto.
func Default() Config {
	return Config{
		Reactor: ReactorConfig{
			TimerCapacityHint: 16,
			EnableMetrics:     true,
		},
		PathSet: PathSetConfig{
			MaxDepth:      256,
			MaxPathLength: 4096,
		},
		Snapshot: SnapshotConfig{
			Enabled: false,
			DBPath:  "reactorctl.db",
		},
	}
}

// Load reads path and decodes it onto Default(), so a file that specifies
// only a handful of fields leaves the rest at their compiled-in values. An
// empty path returns Default() unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reactorcfg: reading %s: %w", path, err)
	}
	if err := jsoniter.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("reactorcfg: decoding %s: %w", path, err)
	}
	return cfg, nil
}
