package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"regexp"
	"time"
	"worker-analysis/constant"
	"worker-analysis/dto"
	"worker-analysis/entities"
	"worker-analysis/pkg/apperror"
	"worker-analysis/pkg/chunk"
	"worker-analysis/pkg/llm"
	"worker-analysis/pkg/metrics"
)

const defaultContentType = "application/octet-stream"

var (
	ErrTranscoderUnavailable = errors.New("transcoder not configured")
	errNoTranscodeOutput     = errors.New("transcoder produced no output")

	unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
)

// Submission is one asset handed to the pipeline.
type Submission struct {
	UserId    string
	FileName  string
	Asset     entities.VideoAsset
	Target    constant.TargetAudience
	Transcode bool
}

// Pipeline runs one submission from record creation to a completed
// analysis. Steps run once each, in order, and the first failure ends the
// run.
type Pipeline struct {
	records    *RecordTracker
	storage    ObjectStorage
	prompts    *PromptResolver
	model      Model
	transcoder Transcoder
	chunkSize  int
	now        func() time.Time
}

// NewPipeline accepts a nil transcoder; submissions asking for a transcode
// then fail with TranscodeFailure.
func NewPipeline(records *RecordTracker, storage ObjectStorage, prompts *PromptResolver, model Model, transcoder Transcoder, chunkSize int) *Pipeline {
	if chunkSize <= 0 {
		chunkSize = chunk.DefaultChunkSize
	}
	return &Pipeline{
		records:    records,
		storage:    storage,
		prompts:    prompts,
		model:      model,
		transcoder: transcoder,
		chunkSize:  chunkSize,
		now:        time.Now,
	}
}

func (p *Pipeline) Run(ctx context.Context, sub Submission) (result dto.ProcessingResult, err error) {
	start := time.Now()
	defer func() {
		observeRun(result, time.Since(start))
	}()

	storagePath := StoragePath(sub.UserId, sub.FileName, p.now())
	record, err := p.records.Create(ctx, sub.UserId, sub.FileName, storagePath)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("storage_path", storagePath).Msg("failed to create processing record")
		return failedResult(nil, err), err
	}

	id := record.ID
	logger := zerolog.Ctx(ctx).With().Str("record_id", id.String()).Logger()
	ctx = logger.WithContext(ctx)
	logger.Info().Str("storage_path", storagePath).Str("target", string(sub.Target)).Msg("processing record created")

	defer func() {
		if err == nil {
			return
		}
		if ctx.Err() != nil && !apperror.Is(err, constant.ErrorKindCancellation) {
			err = apperror.New(constant.ErrorKindCancellation, err)
		}
		logger.Error().Err(err).Msg("pipeline failed")
		p.records.MarkFailed(context.WithoutCancel(ctx), id, err.Error())
		result = failedResult(&id, err)
	}()

	asset := sub.Asset
	if sub.Transcode {
		logger.Info().Int64("size", asset.Size).Msg("transcoding asset")
		if asset, err = p.transcode(ctx, asset); err != nil {
			return result, err
		}
	}

	size := int64(len(asset.Data))
	contentType := asset.MimeType
	if contentType == "" {
		contentType = defaultContentType
	}
	chunkCount := chunk.Count(size, p.chunkSize)

	logger.Info().Int64("size", size).Int("chunks", chunkCount).Msg("uploading asset")
	body := chunk.NewReader(ctx, asset, p.chunkSize)
	err = p.storage.Put(ctx, storagePath, body, size, contentType)
	body.Close()
	if err != nil {
		return result, apperror.New(constant.ErrorKindUpload, err)
	}
	metrics.AssetBytes.Observe(float64(size))

	meta := entities.AssetMetadata{
		MimeType:   contentType,
		Size:       size,
		Transcoded: sub.Transcode,
		ChunkCount: chunkCount,
	}
	if err = p.records.MarkUploaded(ctx, id, chunkCount > 1, meta); err != nil {
		return result, apperror.New(constant.ErrorKindUpload, fmt.Errorf("mark uploaded: %w", err))
	}

	prompt, err := p.prompts.Resolve(ctx, sub.Target)
	if err != nil {
		if _, ok := apperror.KindOf(err); !ok {
			err = apperror.New(constant.ErrorKindPromptFetch, err)
		}
		return result, err
	}

	logger.Info().Msg("requesting analysis")
	text, err := p.model.Generate(ctx, llm.Text(prompt), llm.Inline(asset.Data, contentType))
	metrics.ModelCallsTotal.WithLabelValues("analyze").Inc()
	if err != nil {
		if errors.Is(err, llm.ErrInvalidCredentials) {
			return result, apperror.New(constant.ErrorKindModelValidation, err)
		}
		return result, apperror.New(constant.ErrorKindModelInvocation, err)
	}

	if markErr := p.records.MarkCompleted(context.WithoutCancel(ctx), id, text); markErr != nil {
		logger.Error().Err(markErr).Msg("failed to mark record as completed")
	}

	logger.Info().Int("analysis_length", len(text)).Msg("pipeline completed")
	return dto.ProcessingResult{
		RecordId:     &id,
		Status:       constant.ProcessingStatusCompleted,
		AnalysisText: &text,
	}, nil
}

// transcode takes the single output of the transcoder. An empty sequence
// means the run was cancelled.
func (p *Pipeline) transcode(ctx context.Context, asset entities.VideoAsset) (entities.VideoAsset, error) {
	if p.transcoder == nil {
		return asset, apperror.New(constant.ErrorKindTranscode, ErrTranscoderUnavailable)
	}
	for out, err := range p.transcoder.Transcode(ctx, asset) {
		if err != nil {
			return asset, err
		}
		return out, nil
	}

	cause := context.Cause(ctx)
	if cause == nil {
		return asset, apperror.New(constant.ErrorKindTranscode, errNoTranscodeOutput)
	}
	return asset, apperror.New(constant.ErrorKindCancellation, cause)
}

// StoragePath builds "<userId>/<unix millis>_<file name>" with both user id
// and file name sanitized, so the key always has exactly one separator.
func StoragePath(userId, fileName string, at time.Time) string {
	return fmt.Sprintf("%s/%d_%s", sanitize(userId), at.UnixMilli(), sanitize(fileName))
}

func sanitize(s string) string {
	return unsafePathChars.ReplaceAllString(s, "_")
}

func failedResult(id *uuid.UUID, err error) dto.ProcessingResult {
	result := dto.ProcessingResult{
		RecordId: id,
		Status:   constant.ProcessingStatusFailed,
	}
	if kind, ok := apperror.KindOf(err); ok {
		k := kind.String()
		result.ErrorKind = &k
	}
	return result
}

func observeRun(result dto.ProcessingResult, elapsed time.Duration) {
	kind := ""
	if result.ErrorKind != nil {
		kind = *result.ErrorKind
	}
	metrics.PipelineRunsTotal.WithLabelValues(result.Status.String(), kind).Inc()
	metrics.PipelineDuration.WithLabelValues(result.Status.String()).Observe(elapsed.Seconds())
}
