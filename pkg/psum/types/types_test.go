package types

import (
	"errors"
	"testing"
)

func TestParseWindowLen(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    uint32
		wantErr bool
	}{
		{name: "plain bytes", input: "100", want: 100, wantErr: false},
		{name: "default window", input: "100B", want: 100, wantErr: false},
		{name: "kilobytes", input: "4K", want: 4 * 1024, wantErr: false},
		{name: "kibibytes suffix", input: "4KiB", want: 4 * 1024, wantErr: false},
		{name: "megabytes", input: "1M", want: 1024 * 1024, wantErr: false},
		{name: "decimal truncated", input: "1.5K", want: 1536, wantErr: false},
		{name: "whitespace", input: "  256  ", want: 256, wantErr: false},
		{name: "max window", input: "64M", want: MaxWindowLen, wantErr: false},

		{name: "zero is invalid", input: "0", wantErr: true},
		{name: "negative", input: "-100", wantErr: true},
		{name: "over cap", input: "65M", wantErr: true},
		{name: "gibberish", input: "lots", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseWindowLen(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseWindowLen(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidWindow) {
					t.Errorf("ParseWindowLen(%q) error = %v, want ErrInvalidWindow", tt.input, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseWindowLen(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestRemapRuleApply(t *testing.T) {
	tests := []struct {
		name string
		rule RemapRule
		path string
		want string
	}{
		{
			name: "prefix replaced",
			rule: RemapRule{OldPrefix: "/a", NewPrefix: "/x"},
			path: "/a/b/c.txt",
			want: "/x/b/c.txt",
		},
		{
			name: "non-matching prefix is a no-op",
			rule: RemapRule{OldPrefix: "/a", NewPrefix: "/x"},
			path: "/data/b/c.txt",
			want: "/data/b/c.txt",
		},
		{
			name: "partial component does not match",
			rule: RemapRule{OldPrefix: "/a", NewPrefix: "/x"},
			path: "/abc/file.txt",
			want: "/abc/file.txt",
		},
		{
			name: "exact prefix path",
			rule: RemapRule{OldPrefix: "/a/b/c.txt", NewPrefix: "/x/c.txt"},
			path: "/a/b/c.txt",
			want: "/x/c.txt",
		},
		{
			name: "trailing slash on old prefix",
			rule: RemapRule{OldPrefix: "/old/", NewPrefix: "/new/"},
			path: "/old/f",
			want: "/new/f",
		},
		{
			name: "empty rule is a no-op",
			rule: RemapRule{},
			path: "/a/b",
			want: "/a/b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.Apply(tt.path); got != tt.want {
				t.Errorf("Apply(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestOutcomeKindFailure(t *testing.T) {
	failing := []OutcomeKind{ContentMismatch, MetadataOnlyMismatch, Missing, ReadError}
	for _, k := range failing {
		if !k.Failure() {
			t.Errorf("Failure() = false for %q, want true", k)
		}
	}
	for _, k := range []OutcomeKind{Match, Extra} {
		if k.Failure() {
			t.Errorf("Failure() = true for %q, want false", k)
		}
	}
}

func TestRemapRuleIsZero(t *testing.T) {
	if !(RemapRule{}).IsZero() {
		t.Error("empty rule should be zero")
	}
	if (RemapRule{OldPrefix: "/a", NewPrefix: "/b"}).IsZero() {
		t.Error("populated rule should not be zero")
	}
}
