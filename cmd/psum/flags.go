package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/jamesainslie/psum/pkg/psum/config"
	"github.com/jamesainslie/psum/pkg/psum/engine"
	"github.com/jamesainslie/psum/pkg/psum/types"
)

// buildEngineConfig assembles the engine configuration shared by the sum and
// check commands from viper-bound flags and config values.
func buildEngineConfig() (engine.Config, error) {
	windowStr := viper.GetString("window_len")
	if windowStr == "" {
		windowStr = config.DefaultWindowLen
	}

	windowLen, err := types.ParseWindowLen(windowStr)
	if err != nil {
		return engine.Config{}, fmt.Errorf("invalid window length %q: %w", windowStr, err)
	}

	return engine.Config{
		WindowLen:      windowLen,
		Algorithm:      viper.GetString("algorithm"),
		IncludeModTime: viper.GetBool("include_modtime"),
		SkipErrors:     viper.GetBool("skip_errors"),
		Workers:        viper.GetInt("workers"),
		Exclude:        viper.GetStringSlice("exclude"),
	}, nil
}

// resolveRoots expands and absolutizes the path arguments, verifying each
// exists. Both files and directories are accepted.
func resolveRoots(args []string) ([]string, error) {
	roots := make([]string, 0, len(args))
	for _, arg := range args {
		expanded, err := config.ExpandPath(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to expand path: %w", err)
		}

		absPath, err := filepath.Abs(expanded)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path: %w", err)
		}

		if _, err := os.Stat(absPath); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("path does not exist: %s", absPath)
			}
			return nil, fmt.Errorf("cannot access path: %w", err)
		}
		roots = append(roots, absPath)
	}
	return roots, nil
}
