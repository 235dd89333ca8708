package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const (
	// DefaultFFProbePath is the ffprobe binary looked up in PATH.
	DefaultFFProbePath = "ffprobe"

	// DefaultProbeTimeout bounds a single ffprobe invocation.
	DefaultProbeTimeout = 30 * time.Second
)

// CodecProber reports the codec of the first media stream of a resource.
type CodecProber interface {
	// Probe returns the trimmed codec name, e.g. "h264".
	Probe(ctx context.Context, url string) (string, error)
}

// FFProbe is a CodecProber backed by the ffprobe command line tool.
type FFProbe struct {
	path    string
	timeout time.Duration
}

// FFProbeOption configures an FFProbe.
type FFProbeOption func(*FFProbe)

// WithFFProbePath sets the ffprobe binary. A bare name is looked up in PATH.
func WithFFProbePath(path string) FFProbeOption {
	return func(p *FFProbe) {
		if path != "" {
			p.path = path
		}
	}
}

// WithProbeTimeout sets the timeout of a single probe.
func WithProbeTimeout(d time.Duration) FFProbeOption {
	return func(p *FFProbe) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewFFProbe creates a new FFProbe.
func NewFFProbe(opts ...FFProbeOption) *FFProbe {
	p := &FFProbe{
		path:    DefaultFFProbePath,
		timeout: DefaultProbeTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ffprobeOutput is the subset of `ffprobe -print_format json -show_streams`
// output that is needed.
type ffprobeOutput struct {
	Streams []struct {
		CodecName string `json:"codec_name"`
	} `json:"streams"`
}

// Probe runs ffprobe against url and returns the codec of the first stream.
func (p *FFProbe) Probe(ctx context.Context, url string) (string, error) {
	bin, err := exec.LookPath(p.path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrProberNotFound, p.path)
	}

	parent := ctx
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	//nolint:gosec // the URL is passed as a single argument, never through a shell
	cmd := exec.CommandContext(ctx, bin,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		url,
	)

	out, err := cmd.Output()
	if err != nil {
		// The caller's deadline or cancellation takes precedence over p.timeout.
		if parentErr := parent.Err(); parentErr != nil {
			return "", fmt.Errorf("ffprobe of %s interrupted: %w", url, parentErr)
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s: %s", ErrProbeTimeout, p.timeout, url)
		}
		return "", fmt.Errorf("%w: %s: %w", ErrProbeFailed, url, err)
	}

	return parseProbeOutput(out)
}

// parseProbeOutput extracts the first stream's codec name.
func parseProbeOutput(out []byte) (string, error) {
	var parsed ffprobeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidProbeOutput, err)
	}
	if len(parsed.Streams) == 0 {
		return "", ErrNoStreams
	}
	codec := strings.TrimSpace(parsed.Streams[0].CodecName)
	if codec == "" {
		return "", ErrNoStreams
	}
	return codec, nil
}
