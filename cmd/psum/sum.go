package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/psum/cmd/psum/tui"
	"github.com/jamesainslie/psum/pkg/psum/cache"
	"github.com/jamesainslie/psum/pkg/psum/config"
	"github.com/jamesainslie/psum/pkg/psum/engine"
	"github.com/jamesainslie/psum/pkg/psum/fingerprint"
	"github.com/jamesainslie/psum/pkg/psum/record"
	"github.com/jamesainslie/psum/pkg/psum/types"
)

var sumCmd = &cobra.Command{
	Use:     "sum [path...]",
	Aliases: []string{"generate"},
	Short:   "Fingerprint files and emit checksum records",
	Long: `Walk the given paths, fingerprint every regular file, and emit one
checksum record per file. Records go to stdout by default so they can be
redirected or piped; use -o to write a file directly.

Each record is a tab-separated line: path, size, digest, and optionally the
modification time when -m is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSum,
}

func init() {
	sumCmd.Flags().StringP("output", "o", "", "write checksum records to FILE instead of stdout")
	sumCmd.Flags().Bool("no-cache", false, "bypass the fingerprint cache")
	_ = viper.BindPFlag("output_file", sumCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("no_cache", sumCmd.Flags().Lookup("no-cache"))

	rootCmd.AddCommand(sumCmd)
}

// runSum is the generate-mode command handler.
func runSum(_ *cobra.Command, args []string) error {
	roots, err := resolveRoots(args)
	if err != nil {
		return err
	}

	cfg, err := buildEngineConfig()
	if err != nil {
		return err
	}

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		printInfo("\nInterrupted, stopping...")
		cancel()
	}()

	fpCache := openCache()
	if fpCache != nil {
		defer fpCache.Close()
	}

	var prog *tui.Progress
	if viper.GetBool("progress") && !getQuiet() {
		prog = tui.NewProgress("Fingerprinting")
		prog.Start()
		cfg.OnFile = prog.OnFile
	}

	result, runErr := engine.Generate(ctx, roots, cfg, fpCache)
	if prog != nil {
		prog.Finish(runErr)
	}
	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("aborted")
		}
		return runErr
	}

	if err := writeRecords(result.Records, cfg, viper.GetString("output_file")); err != nil {
		return err
	}

	for _, we := range result.WalkErrors {
		printError("%s: %v", we.Path, we.Err)
	}
	for _, sk := range result.Skipped {
		printError("%s: %v", sk.Path, sk.Err)
	}

	printInfo("%d files fingerprinted in %s (cache: %d hits, %d misses)",
		len(result.Records), result.Elapsed.Round(time.Millisecond),
		result.CacheHits, result.CacheMisses)

	if len(result.Skipped) > 0 || len(result.WalkErrors) > 0 {
		return errPartialFailure
	}
	return nil
}

// openCache opens the fingerprint cache unless disabled by flag or config.
// Cache failures degrade to uncached operation rather than failing the run.
func openCache() *cache.Cache {
	if viper.GetBool("no_cache") || !viper.GetBool("cache.enabled") {
		printVerbose("Fingerprint cache disabled")
		return nil
	}

	path := viper.GetString("cache.path")
	if path == "" {
		path = config.DefaultCachePath()
	}

	c, err := cache.Open(path)
	if err != nil {
		printVerbose("Failed to open fingerprint cache at %s: %v", path, err)
		return nil
	}
	return c
}

// writeRecords encodes the fingerprints to the output file, or stdout when
// path is empty. A short comment header records the hash configuration so a
// reader can tell how to re-verify the file.
func writeRecords(records []types.FileFingerprint, cfg engine.Config, path string) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	algo := cfg.Algorithm
	if algo == "" {
		algo = fingerprint.DefaultAlgorithm
	}

	w := bufio.NewWriter(out)
	fmt.Fprintf(w, "%s psum partial checksums\n", record.CommentPrefix)
	fmt.Fprintf(w, "%s algorithm=%s window=%d modtime=%t\n",
		record.CommentPrefix, algo, cfg.WindowLen, cfg.IncludeModTime)

	for _, fp := range records {
		line, err := record.Encode(fp)
		if err != nil {
			return fmt.Errorf("cannot encode record for %s: %w", fp.Path, err)
		}
		fmt.Fprintln(w, line)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write records: %w", err)
	}
	return nil
}
