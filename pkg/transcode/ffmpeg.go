package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var ErrTerminated = errors.New("transcoder terminated")

// FFmpegEngine runs the ffmpeg binary inside a private scratch directory.
type FFmpegEngine struct {
	binary string
	dir    string
}

// NewFFmpegFactory returns an EngineFactory that creates a fresh scratch
// directory under baseDir for every handle.
func NewFFmpegFactory(binary, baseDir string) EngineFactory {
	if binary == "" {
		binary = "ffmpeg"
	}
	return func(ctx context.Context) (Engine, error) {
		if baseDir != "" {
			if err := os.MkdirAll(baseDir, os.ModePerm); err != nil {
				return nil, err
			}
		}
		dir, err := os.MkdirTemp(baseDir, "transcode-")
		if err != nil {
			return nil, err
		}
		zerolog.Ctx(ctx).Debug().Str("dir", dir).Msg("transcoder workspace created")
		return &FFmpegEngine{binary: binary, dir: dir}, nil
	}
}

func (e *FFmpegEngine) path(name string) (string, error) {
	if e.dir == "" {
		return "", ErrTerminated
	}
	return filepath.Join(e.dir, filepath.Base(name)), nil
}

func (e *FFmpegEngine) WriteFile(name string, data []byte) error {
	p, err := e.path(name)
	if err != nil {
		return err
	}
	return os.WriteFile(p, data, 0644)
}

func (e *FFmpegEngine) ReadFile(name string) ([]byte, error) {
	p, err := e.path(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// Exec runs ffmpeg to completion. ctx only carries the logger: a transform
// that already started is never killed.
func (e *FFmpegEngine) Exec(ctx context.Context, args ...string) error {
	if e.dir == "" {
		return ErrTerminated
	}

	cmd := exec.Command(e.binary, args...)
	cmd.Dir = e.dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	zerolog.Ctx(ctx).Debug().Strs("ffmpeg_args", args).Msg("executing ffmpeg")
	if err := cmd.Run(); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("ffmpeg_output", stderr.String()).Msg("ffmpeg failed")
		return fmt.Errorf("ffmpeg execution failed: %w\nOutput: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (e *FFmpegEngine) Terminate() error {
	if e.dir == "" {
		return nil
	}
	dir := e.dir
	e.dir = ""
	return os.RemoveAll(dir)
}
