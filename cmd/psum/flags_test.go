package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/psum/pkg/psum/engine"
	"github.com/jamesainslie/psum/pkg/psum/fingerprint"
	"github.com/jamesainslie/psum/pkg/psum/record"
	"github.com/jamesainslie/psum/pkg/psum/types"
)

func TestBuildEngineConfig(t *testing.T) {
	viper.Set("window_len", "4KiB")
	viper.Set("algorithm", "sha512-256")
	viper.Set("include_modtime", true)
	viper.Set("skip_errors", true)
	viper.Set("workers", 3)
	defer func() {
		viper.Set("window_len", "")
		viper.Set("algorithm", "")
		viper.Set("include_modtime", false)
		viper.Set("skip_errors", false)
		viper.Set("workers", 0)
	}()

	cfg, err := buildEngineConfig()
	if err != nil {
		t.Fatalf("buildEngineConfig() error = %v", err)
	}

	if cfg.WindowLen != 4*1024 {
		t.Errorf("WindowLen = %d, want %d", cfg.WindowLen, 4*1024)
	}
	if cfg.Algorithm != "sha512-256" {
		t.Errorf("Algorithm = %q, want %q", cfg.Algorithm, "sha512-256")
	}
	if !cfg.IncludeModTime {
		t.Error("IncludeModTime = false, want true")
	}
	if !cfg.SkipErrors {
		t.Error("SkipErrors = false, want true")
	}
	if cfg.Workers != 3 {
		t.Errorf("Workers = %d, want 3", cfg.Workers)
	}
}

func TestBuildEngineConfig_InvalidWindow(t *testing.T) {
	viper.Set("window_len", "0")
	defer viper.Set("window_len", "")

	if _, err := buildEngineConfig(); err == nil {
		t.Error("expected error for zero window length")
	}
}

func TestParseRemap(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		wantOld string
		wantNew string
		wantErr bool
	}{
		{"empty flag is a zero rule", "", "", "", false},
		{"valid mapping", "/data=/mnt/data", "/data", "/mnt/data", false},
		{"trailing slashes cleaned", "/data/=/mnt/data/", "/data", "/mnt/data", false},
		{"missing separator", "/data", "", "", true},
		{"empty old prefix", "=/mnt", "", "", true},
		{"empty new prefix", "/data=", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{}
			cmd.Flags().String("remap", "", "")
			if tt.flag != "" {
				if err := cmd.Flags().Set("remap", tt.flag); err != nil {
					t.Fatalf("failed to set flag: %v", err)
				}
			}

			rule, err := parseRemap(cmd)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseRemap(%q) error = %v, wantErr %v", tt.flag, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if rule.OldPrefix != tt.wantOld || rule.NewPrefix != tt.wantNew {
				t.Errorf("parseRemap(%q) = %q -> %q, want %q -> %q",
					tt.flag, rule.OldPrefix, rule.NewPrefix, tt.wantOld, tt.wantNew)
			}
		})
	}
}

func TestResolveRoots(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.bin")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	roots, err := resolveRoots([]string{dir, file})
	if err != nil {
		t.Fatalf("resolveRoots() error = %v", err)
	}
	if len(roots) != 2 {
		t.Fatalf("len(roots) = %d, want 2", len(roots))
	}
	for _, r := range roots {
		if !filepath.IsAbs(r) {
			t.Errorf("root %q is not absolute", r)
		}
	}

	if _, err := resolveRoots([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Error("expected error for nonexistent path")
	}
}

func TestWriteRecords_RoundTrip(t *testing.T) {
	algo, err := fingerprint.GetAlgorithm(fingerprint.DefaultAlgorithm)
	if err != nil {
		t.Fatalf("GetAlgorithm() error = %v", err)
	}

	records := []types.FileFingerprint{
		{Path: "/data/a.bin", Size: 100, Digest: make([]byte, algo.Size)},
		{Path: "/data/b.bin", Size: 200, Digest: make([]byte, algo.Size)},
	}

	outPath := filepath.Join(t.TempDir(), "out.psum")
	cfg := engine.Config{WindowLen: 100}
	if err := writeRecords(records, cfg, outPath); err != nil {
		t.Fatalf("writeRecords() error = %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if !strings.HasPrefix(string(data), record.CommentPrefix) {
		t.Error("output should start with a comment header")
	}

	set, err := record.LoadFile(outPath, record.DecodeOptions{Algorithm: algo})
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if set.Len() != 2 {
		t.Errorf("decoded %d records, want 2", set.Len())
	}
	if _, ok := set.Get("/data/a.bin"); !ok {
		t.Error("missing record for /data/a.bin")
	}
}
