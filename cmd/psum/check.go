package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/psum/cmd/psum/tui"
	"github.com/jamesainslie/psum/pkg/psum/config"
	"github.com/jamesainslie/psum/pkg/psum/engine"
	"github.com/jamesainslie/psum/pkg/psum/fingerprint"
	"github.com/jamesainslie/psum/pkg/psum/output"
	"github.com/jamesainslie/psum/pkg/psum/record"
	"github.com/jamesainslie/psum/pkg/psum/types"
)

var checkCmd = &cobra.Command{
	Use:     "check FILE",
	Aliases: []string{"verify"},
	Short:   "Verify files against a checksum file",
	Long: `Recompute the fingerprint of every record in FILE and report each path
as OK, MISMATCH, META-MISMATCH, MISSING, or ERROR.

The window length, algorithm, and modtime settings must match the ones the
checksum file was generated with; window and algorithm come from flags or
config, while modtime presence is detected from the file itself.

Use --remap OLD=NEW to verify a tree that has moved since generation, and
--extra ROOT to additionally report live files under ROOT that have no
record.`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().String("remap", "", "rewrite recorded path prefixes before lookup (OLD=NEW)")
	checkCmd.Flags().Bool("lenient", false, "skip malformed checksum lines instead of aborting")
	checkCmd.Flags().String("extra", "", "also report files under ROOT that have no record")
	checkCmd.Flags().Bool("failures-only", false, "hide OK rows in pretty output")
	checkCmd.Flags().StringP("format", "f", "", "report format (plain, pretty, json, jsonl)")
	_ = viper.BindPFlag("lenient", checkCmd.Flags().Lookup("lenient"))
	_ = viper.BindPFlag("failures_only", checkCmd.Flags().Lookup("failures-only"))
	_ = viper.BindPFlag("output", checkCmd.Flags().Lookup("format"))

	rootCmd.AddCommand(checkCmd)
}

// runCheck is the verify-mode command handler.
func runCheck(cmd *cobra.Command, args []string) error {
	checksumPath, err := config.ExpandPath(args[0])
	if err != nil {
		return fmt.Errorf("failed to expand path: %w", err)
	}

	cfg, err := buildEngineConfig()
	if err != nil {
		return err
	}

	algoName := cfg.Algorithm
	if algoName == "" {
		algoName = fingerprint.DefaultAlgorithm
	}
	algo, err := fingerprint.GetAlgorithm(algoName)
	if err != nil {
		return err
	}

	// Modtime expectation: only enforced when the flag was given explicitly;
	// otherwise the checksum file decides.
	var wantModTime *bool
	if cmd.Flags().Changed("include-modtime") {
		v := viper.GetBool("include_modtime")
		wantModTime = &v
	}

	var warnings []string
	set, err := record.LoadFile(checksumPath, record.DecodeOptions{
		Algorithm:   algo,
		Lenient:     viper.GetBool("lenient"),
		WantModTime: wantModTime,
		Warn: func(lineNo int, msg string) {
			warnings = append(warnings, fmt.Sprintf("%s:%d: %s", checksumPath, lineNo, msg))
		},
	})
	if err != nil {
		return err
	}
	cfg.IncludeModTime = set.HasModTime()

	if cfg.Remap, err = parseRemap(cmd); err != nil {
		return err
	}

	extraRoot := ""
	if flagVal, _ := cmd.Flags().GetString("extra"); flagVal != "" {
		roots, err := resolveRoots([]string{flagVal})
		if err != nil {
			return err
		}
		extraRoot = roots[0]
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

	var prog *tui.Progress
	if viper.GetBool("progress") && !getQuiet() {
		prog = tui.NewProgress("Verifying")
		prog.Start()
		cfg.OnFile = prog.OnFile
	}

	result, runErr := engine.Verify(ctx, set, cfg, extraRoot)
	if prog != nil {
		prog.Finish(runErr)
	}
	if result == nil {
		return runErr
	}

	for _, we := range result.WalkErrors {
		warnings = append(warnings, fmt.Sprintf("%s: %v", we.Path, we.Err))
	}

	report := &output.Report{
		Outcomes:     result.Outcomes,
		Summary:      result.Summary,
		ChecksumFile: checksumPath,
		Elapsed:      result.Elapsed,
		Warnings:     warnings,
		Interrupted:  runErr != nil,
	}

	if err := printReport(report); err != nil {
		return err
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("aborted")
		}
		return runErr
	}
	if result.Summary.Failures() > 0 {
		return errPartialFailure
	}
	return nil
}

// parseRemap parses the --remap OLD=NEW flag into a remap rule.
func parseRemap(cmd *cobra.Command) (types.RemapRule, error) {
	raw, _ := cmd.Flags().GetString("remap")
	if raw == "" {
		return types.RemapRule{}, nil
	}

	oldPrefix, newPrefix, ok := strings.Cut(raw, "=")
	if !ok || oldPrefix == "" || newPrefix == "" {
		return types.RemapRule{}, fmt.Errorf("invalid remap %q: expected OLD=NEW", raw)
	}
	return types.RemapRule{
		OldPrefix: filepath.Clean(oldPrefix),
		NewPrefix: filepath.Clean(newPrefix),
	}, nil
}

// printReport formats the verification report to stdout.
func printReport(report *output.Report) error {
	name := viper.GetString("output")
	if name == "" {
		name = config.DefaultOutputFormat
	}

	formatter, err := output.Get(name)
	if err != nil {
		return fmt.Errorf("unknown output format %q: available formats are %v", name, output.Available())
	}
	if pretty, ok := formatter.(*output.PrettyFormatter); ok {
		pretty.FailuresOnly = viper.GetBool("failures_only")
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, report); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Print(buf.String())
	return nil
}
