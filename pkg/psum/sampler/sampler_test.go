package sampler

import (
	"errors"
	"testing"

	"github.com/jamesainslie/psum/pkg/psum/types"
)

func TestWindowsZeroLength(t *testing.T) {
	_, err := Windows(1000, 0)
	if !errors.Is(err, types.ErrInvalidWindow) {
		t.Fatalf("Windows(1000, 0) error = %v, want ErrInvalidWindow", err)
	}
}

func TestWindows(t *testing.T) {
	tests := []struct {
		name      string
		fileSize  uint64
		windowLen uint32
		want      []types.SampleWindow
	}{
		{
			name:     "empty file collapses to a single empty window",
			fileSize: 0, windowLen: 100,
			want: []types.SampleWindow{{Offset: 0, Length: 0}},
		},
		{
			name:     "file smaller than window collapses to whole file",
			fileSize: 50, windowLen: 100,
			want: []types.SampleWindow{{Offset: 0, Length: 50}},
		},
		{
			name:     "file equal to window collapses to whole file",
			fileSize: 100, windowLen: 100,
			want: []types.SampleWindow{{Offset: 0, Length: 100}},
		},
		{
			name:     "just over one window gets start and end",
			fileSize: 101, windowLen: 100,
			want: []types.SampleWindow{
				{Offset: 0, Length: 100},
				{Offset: 1, Length: 100},
			},
		},
		{
			name:     "two windows exactly",
			fileSize: 200, windowLen: 100,
			want: []types.SampleWindow{
				{Offset: 0, Length: 100},
				{Offset: 100, Length: 100},
			},
		},
		{
			name:     "middle omitted while it would overlap",
			fileSize: 299, windowLen: 100,
			want: []types.SampleWindow{
				{Offset: 0, Length: 100},
				{Offset: 199, Length: 100},
			},
		},
		{
			name:     "exactly three windows tile the file",
			fileSize: 300, windowLen: 100,
			want: []types.SampleWindow{
				{Offset: 0, Length: 100},
				{Offset: 100, Length: 100},
				{Offset: 200, Length: 100},
			},
		},
		{
			name:     "general case",
			fileSize: 1000, windowLen: 100,
			want: []types.SampleWindow{
				{Offset: 0, Length: 100},
				{Offset: 450, Length: 100},
				{Offset: 900, Length: 100},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Windows(tt.fileSize, tt.windowLen)
			if err != nil {
				t.Fatalf("Windows(%d, %d) error = %v", tt.fileSize, tt.windowLen, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Windows(%d, %d) = %v, want %v", tt.fileSize, tt.windowLen, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("window %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

// Windows must never read past end-of-file, for any size/length combination.
func TestWindowsNeverExceedFile(t *testing.T) {
	sizes := []uint64{0, 1, 2, 50, 99, 100, 101, 150, 199, 200, 201, 299, 300, 301, 1 << 20, (1 << 32) + 17}
	lengths := []uint32{1, 2, 99, 100, 4096}

	for _, size := range sizes {
		for _, length := range lengths {
			wins, err := Windows(size, length)
			if err != nil {
				t.Fatalf("Windows(%d, %d) error = %v", size, length, err)
			}
			if size <= uint64(length) && len(wins) != 1 {
				t.Errorf("Windows(%d, %d): got %d windows, want exactly 1", size, length, len(wins))
			}
			for _, w := range wins {
				if w.Offset+uint64(w.Length) > size {
					t.Errorf("Windows(%d, %d): window %+v exceeds file size", size, length, w)
				}
			}
		}
	}
}
