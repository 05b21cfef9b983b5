package transcode

import (
	"context"
	"fmt"
	"github.com/rs/zerolog"
	"iter"
	"sync"
	"worker-analysis/constant"
	"worker-analysis/entities"
	"worker-analysis/pkg/apperror"
)

const (
	DefaultMaxHeight = 480
	inputFileName    = "input.mp4"
	outputFileName   = "output.mp4"
	outputMimeType   = "video/mp4"
)

// Engine is a live transcoding handle. It owns a private workspace that
// lives until Terminate.
type Engine interface {
	WriteFile(name string, data []byte) error
	Exec(ctx context.Context, args ...string) error
	ReadFile(name string) ([]byte, error)
	Terminate() error
}

// EngineFactory is the single way a Session acquires a handle.
type EngineFactory func(ctx context.Context) (Engine, error)

type lifecycle int

const (
	uninitialized lifecycle = iota
	ready
	terminated
)

func (l lifecycle) String() string {
	switch l {
	case uninitialized:
		return "uninitialized"
	case ready:
		return "ready"
	case terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

type Session struct {
	mu        sync.Mutex
	factory   EngineFactory
	maxHeight int

	state  lifecycle
	handle Engine
}

func NewSession(factory EngineFactory, maxHeight int) *Session {
	if maxHeight <= 0 {
		maxHeight = DefaultMaxHeight
	}
	return &Session{
		factory:   factory,
		maxHeight: maxHeight,
	}
}

// Transcode converts asset into a normalized mp4. The sequence yields the
// output once, yields nothing if ctx is cancelled around the transform, or
// yields a TranscodeFailure. The engine handle is released on every path.
// A running transform is not interrupted by ctx.
func (s *Session) Transcode(ctx context.Context, asset entities.VideoAsset) iter.Seq2[entities.VideoAsset, error] {
	return func(yield func(entities.VideoAsset, error) bool) {
		if ctx.Err() != nil {
			zerolog.Ctx(ctx).Info().Msg("transcode aborted before start")
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()

		handle, err := s.acquire(ctx)
		if err != nil {
			yield(entities.VideoAsset{}, apperror.New(constant.ErrorKindTranscode, err))
			return
		}
		defer s.release(ctx)

		out, ok, err := s.run(ctx, handle, asset)
		if err != nil {
			yield(entities.VideoAsset{}, apperror.New(constant.ErrorKindTranscode, err))
			return
		}
		if !ok {
			return
		}
		yield(out, nil)
	}
}

func (s *Session) run(ctx context.Context, handle Engine, asset entities.VideoAsset) (entities.VideoAsset, bool, error) {
	logger := zerolog.Ctx(ctx)

	logger.Debug().Int64("size", asset.Size).Msg("writing input to transcoder")
	if err := handle.WriteFile(inputFileName, asset.Data); err != nil {
		return entities.VideoAsset{}, false, fmt.Errorf("write input: %w", err)
	}

	if ctx.Err() != nil {
		logger.Info().Msg("transcode aborted before conversion")
		return entities.VideoAsset{}, false, nil
	}

	logger.Info().Int("max_height", s.maxHeight).Msg("converting video")
	if err := handle.Exec(ctx, BuildArgs(inputFileName, outputFileName, s.maxHeight)...); err != nil {
		return entities.VideoAsset{}, false, err
	}

	if ctx.Err() != nil {
		logger.Info().Msg("transcode aborted after conversion")
		return entities.VideoAsset{}, false, nil
	}

	data, err := handle.ReadFile(outputFileName)
	if err != nil {
		return entities.VideoAsset{}, false, fmt.Errorf("read output: %w", err)
	}
	logger.Info().Int64("input_size", asset.Size).Int("output_size", len(data)).Msg("video converted")

	return entities.NewVideoAsset(data, outputMimeType), true, nil
}

func (s *Session) acquire(ctx context.Context) (Engine, error) {
	if s.state == ready && s.handle != nil {
		return s.handle, nil
	}
	zerolog.Ctx(ctx).Debug().Str("from", s.state.String()).Msg("initializing transcoder")
	handle, err := s.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize transcoder: %w", err)
	}
	s.handle = handle
	s.state = ready
	return handle, nil
}

func (s *Session) release(ctx context.Context) {
	if s.handle != nil {
		zerolog.Ctx(ctx).Debug().Msg("terminating transcoder")
		if err := s.handle.Terminate(); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to terminate transcoder")
		}
	}
	s.handle = nil
	s.state = terminated
}

// Transcoder hands every call its own Session, so concurrent invocations
// never wait on each other's handle.
type Transcoder struct {
	factory   EngineFactory
	maxHeight int
}

func NewTranscoder(factory EngineFactory, maxHeight int) *Transcoder {
	return &Transcoder{factory: factory, maxHeight: maxHeight}
}

func (t *Transcoder) Transcode(ctx context.Context, asset entities.VideoAsset) iter.Seq2[entities.VideoAsset, error] {
	return NewSession(t.factory, t.maxHeight).Transcode(ctx, asset)
}

// BuildArgs returns the fixed transform: rescale to maxHeight keeping the
// aspect ratio, H.264 video and AAC audio.
func BuildArgs(input, output string, maxHeight int) []string {
	return []string{
		"-y",
		"-i", input,
		"-vf", fmt.Sprintf("scale=-2:%d", maxHeight),
		"-c:v", "libx264",
		"-crf", "23",
		"-preset", "fast",
		"-c:a", "aac",
		output,
	}
}
