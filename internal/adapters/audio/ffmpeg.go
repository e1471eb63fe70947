package audio

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"guild-jukebox/internal/core/ports"

	"layeh.com/gopus"
)

const (
	sampleRate   = 48000
	channels     = 2
	frameSize    = 960  // 20ms @ 48kHz
	maxOpusBytes = 4000 // max packet size
	stderrTail   = 512
)

var _ ports.AudioStreamer = (*FFmpegStreamer)(nil)

type frameEncoder interface {
	Encode(pcm []int16, frameSize, maxDataBytes int) ([]byte, error)
}

// FFmpegStreamer decodes any source ffmpeg understands into opus frames.
type FFmpegStreamer struct {
	path       string
	newEncoder func() (frameEncoder, error)
}

func NewFFmpegStreamer(path string) *FFmpegStreamer {
	return &FFmpegStreamer{
		path: path,
		newEncoder: func() (frameEncoder, error) {
			return gopus.NewEncoder(sampleRate, channels, gopus.Audio)
		},
	}
}

func (f *FFmpegStreamer) Stream(ctx context.Context, source string, sink ports.FrameSink) error {
	enc, err := f.newEncoder()
	if err != nil {
		return fmt.Errorf("opus encoder: %w", err)
	}

	cmd := exec.CommandContext(ctx, f.path, ffmpegArgs(source)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr := &tailBuffer{limit: stderrTail}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	streamErr := encodeFrames(ctx, bufio.NewReaderSize(stdout, 1<<16), enc, sink)
	if streamErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return streamErr
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, stderr.String())
	}

	slog.Debug("Stream finished", "source", source)
	return nil
}

func ffmpegArgs(source string) []string {
	args := []string{"-hide_banner", "-loglevel", "error"}
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		args = append(args,
			"-reconnect", "1",
			"-reconnect_streamed", "1",
			"-reconnect_delay_max", "5",
		)
	}
	return append(args,
		"-i", source,
		"-vn",
		"-f", "s16le",
		"-ar", "48000",
		"-ac", "2",
		"pipe:1",
	)
}

// encodeFrames reads 20ms PCM frames from r until EOF. A trailing partial
// frame is padded with silence.
func encodeFrames(ctx context.Context, r io.Reader, enc frameEncoder, sink ports.FrameSink) error {
	pcm := make([]int16, frameSize*channels)
	buf := make([]byte, len(pcm)*2)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := io.ReadFull(r, buf)
		last := false
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, io.ErrUnexpectedEOF):
			clear(buf[n:])
			last = true
		case err != nil:
			return fmt.Errorf("read pcm: %w", err)
		}

		for i := range pcm {
			pcm[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
		}

		packet, err := enc.Encode(pcm, frameSize, maxOpusBytes)
		if err != nil {
			return fmt.Errorf("opus encode: %w", err)
		}

		if err := sink.Send(ctx, packet); err != nil {
			return err
		}

		if last {
			return nil
		}
	}
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	data  []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.data = append(t.data, p...)
	if over := len(t.data) - t.limit; over > 0 {
		t.data = t.data[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.data))
}
