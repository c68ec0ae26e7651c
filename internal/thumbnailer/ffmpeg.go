package thumbnailer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// ErrFrameExtraction wraps every failure reported by the frame extractor.
var ErrFrameExtraction = errors.New("frame extraction failed")

// waitDelay bounds how long a killed ffmpeg may hold its output pipes open.
const waitDelay = 2 * time.Second

// FrameExtractor writes a single still image taken from a video file.
type FrameExtractor interface {
	ExtractFrame(ctx context.Context, input, output string) error
}

// FFmpegExtractor shells out to ffmpeg. The output directory must exist.
type FFmpegExtractor struct {
	Binary string
	Offset time.Duration
}

func (e FFmpegExtractor) binary() string {
	if e.Binary == "" {
		return "ffmpeg"
	}
	return e.Binary
}

func (e FFmpegExtractor) args(input, output string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-ss", strconv.FormatFloat(e.Offset.Seconds(), 'f', 3, 64),
		"-i", input,
		"-frames:v", "1",
		"-q:v", "2",
		output,
	}
}

// ExtractFrame grabs the frame at Offset. A non-zero exit, a cancelled ctx, or
// a run that leaves no image behind (offset past the end of the stream) all
// fail with ErrFrameExtraction.
func (e FFmpegExtractor) ExtractFrame(ctx context.Context, input, output string) error {
	cmd := exec.CommandContext(ctx, e.binary(), e.args(input, output)...)
	cmd.WaitDelay = waitDelay
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return fmt.Errorf("%w: %v: %s", ErrFrameExtraction, err, tail(out, 512))
	}

	info, err := os.Stat(output)
	if err != nil {
		return fmt.Errorf("%w: no frame written at offset %s: %v", ErrFrameExtraction, e.Offset, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: empty frame written at offset %s", ErrFrameExtraction, e.Offset)
	}
	return nil
}

func tail(out []byte, n int) string {
	out = bytes.TrimSpace(out)
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return string(out)
}
