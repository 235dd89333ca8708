package audit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestParseProbeOutput(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		output  string
		codec   string
		wantErr error
	}{
		{"first stream codec", `{"streams":[{"codec_name":" h264 "},{"codec_name":"aac"}]}`, "h264", nil},
		{"empty streams", `{"streams":[]}`, "", ErrNoStreams},
		{"missing streams", `{}`, "", ErrNoStreams},
		{"missing codec", `{"streams":[{"index":0}]}`, "", ErrNoStreams},
		{"not json", `Input/output error`, "", ErrInvalidProbeOutput},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			codec, err := parseProbeOutput([]byte(tc.output))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Errorf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if codec != tc.codec {
				t.Errorf("got %q, expected %q", codec, tc.codec)
			}
		})
	}
}

// writeScript creates an executable shell script standing in for ffprobe.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "ffprobe")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o700); err != nil { //nolint:gosec // test helper
		t.Fatalf("failed to write script: %v", err)
	}
	return path
}

// TestFFProbe runs sequentially: executing a freshly written script while
// other tests fork can fail with ETXTBSY.
func TestFFProbe(t *testing.T) {
	t.Run("missing binary", func(t *testing.T) {
		p := NewFFProbe(WithFFProbePath(filepath.Join(t.TempDir(), "does-not-exist")))
		_, err := p.Probe(context.Background(), "https://example.com/a.mp4")
		if !errors.Is(err, ErrProberNotFound) {
			t.Errorf("expected ErrProberNotFound, got %v", err)
		}
	})

	t.Run("reads codec from output", func(t *testing.T) {
		path := writeScript(t, `echo '{"streams":[{"codec_name":"vp9"}]}'`)
		codec, err := NewFFProbe(WithFFProbePath(path)).Probe(context.Background(), "https://example.com/a.webm")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if codec != "vp9" {
			t.Errorf("got %q, expected vp9", codec)
		}
	})

	t.Run("non-zero exit", func(t *testing.T) {
		path := writeScript(t, "exit 1")
		_, err := NewFFProbe(WithFFProbePath(path)).Probe(context.Background(), "https://example.com/a.webm")
		if !errors.Is(err, ErrProbeFailed) {
			t.Errorf("expected ErrProbeFailed, got %v", err)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		path := writeScript(t, "exec sleep 5")
		p := NewFFProbe(WithFFProbePath(path), WithProbeTimeout(100*time.Millisecond))
		_, err := p.Probe(context.Background(), "https://example.com/a.webm")
		if !errors.Is(err, ErrProbeTimeout) {
			t.Errorf("expected ErrProbeTimeout, got %v", err)
		}
	})

	t.Run("caller deadline is reported as is", func(t *testing.T) {
		path := writeScript(t, "exec sleep 5")
		p := NewFFProbe(WithFFProbePath(path), WithProbeTimeout(time.Minute))

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		_, err := p.Probe(ctx, "https://example.com/a.webm")
		if errors.Is(err, ErrProbeTimeout) {
			t.Errorf("expected the caller's deadline, got %v", err)
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected context.DeadlineExceeded, got %v", err)
		}
	})
}
