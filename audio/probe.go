package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Prober reads the playing time of an encoded clip.
type Prober interface {
	Duration(ctx context.Context, data []byte) (time.Duration, error)
}

// FFProbe shells out to ffprobe.
type FFProbe struct {
	Path string
}

func (p FFProbe) Duration(ctx context.Context, data []byte) (time.Duration, error) {
	f, err := os.CreateTemp("", "clip-*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, err
	}

	bin := p.Path
	if bin == "" {
		bin = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, bin, "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", f.Name())
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parseDuration(stdout.String())
}

// parseDuration reads ffprobe's seconds output.
func parseDuration(out string) (time.Duration, error) {
	secs, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration %q: %w", strings.TrimSpace(out), err)
	}
	return time.Duration(secs * float64(time.Second)), nil
}
