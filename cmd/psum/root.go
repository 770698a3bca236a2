package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/psum/pkg/psum/config"
	"github.com/jamesainslie/psum/pkg/psum/logging"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "psum",
		Short: "Generate and verify partial checksums of large files",
		Long: `psum fingerprints files by hashing small sampled windows (start, middle,
end) together with the file size, instead of reading every byte. This makes
integrity checking of very large trees fast while still catching truncation,
header corruption, and in-place edits near the sampled regions.

Examples:
  psum sum /data > data.psum          # Fingerprint a tree
  psum sum -b 4KiB -o data.psum /data # 4 KiB windows, write to file
  psum check data.psum                # Verify against the live tree
  psum check --remap /data=/mnt/data data.psum
  psum config show                    # Show configuration`,
		SilenceUsage: true,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/psum/config.yaml)")
	rootCmd.PersistentFlags().StringP("partial-bytes", "b", "", "sample window length (e.g., 100, 4KiB, 1MiB)")
	rootCmd.PersistentFlags().StringP("algorithm", "a", "", "hash algorithm (sha256, sha512-256)")
	rootCmd.PersistentFlags().BoolP("include-modtime", "m", false, "hash and record file modification times")
	rootCmd.PersistentFlags().BoolP("skip-errors", "k", false, "record unreadable files and keep going")
	rootCmd.PersistentFlags().IntP("workers", "w", 0, "hashing worker count (0=one per CPU)")
	rootCmd.PersistentFlags().StringSliceP("exclude", "e", nil, "exclude patterns (can be specified multiple times)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().Bool("progress", false, "show interactive progress")

	// Bind flags to viper
	_ = viper.BindPFlag("window_len", rootCmd.PersistentFlags().Lookup("partial-bytes"))
	_ = viper.BindPFlag("algorithm", rootCmd.PersistentFlags().Lookup("algorithm"))
	_ = viper.BindPFlag("include_modtime", rootCmd.PersistentFlags().Lookup("include-modtime"))
	_ = viper.BindPFlag("skip_errors", rootCmd.PersistentFlags().Lookup("skip-errors"))
	_ = viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("exclude", rootCmd.PersistentFlags().Lookup("exclude"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("progress", rootCmd.PersistentFlags().Lookup("progress"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		// Add config paths in order of precedence
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "psum"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "psum"))
		}
	}

	viper.SetEnvPrefix("PSUM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Set defaults from config package
	viper.SetDefault("window_len", config.DefaultWindowLen)
	viper.SetDefault("algorithm", config.DefaultAlgorithm)
	viper.SetDefault("workers", config.DefaultWorkers)
	viper.SetDefault("exclude", config.DefaultExclusions)
	viper.SetDefault("output", config.DefaultOutputFormat)
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("logging.level", "info")

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()

	initLogging()
}

// initLogging wires file logging from the loaded configuration. Logging
// failures are not fatal; the tool still works without a log file.
func initLogging() {
	level := viper.GetString("logging.level")
	if getVerbose() {
		level = "debug"
	}

	logPath := viper.GetString("logging.path")
	if logPath == "" {
		logPath = config.DefaultLogPath()
	}

	consoleLevel := ""
	if getVerbose() {
		consoleLevel = "debug"
	}

	_ = logging.Init(logging.Config{
		Level:        level,
		Path:         logPath,
		ConsoleLevel: consoleLevel,
		Components:   viper.GetStringMapString("logging.components"),
	})
}

// Execute runs the root command.
func Execute() error {
	defer logging.Close()
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message to stderr if quiet mode is not enabled.
// Stderr keeps stdout clean for checksum records and formatted reports.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
