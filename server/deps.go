package server

import (
	"context"
	"fmt"
	"github.com/rs/zerolog"
	"worker-analysis/config"
	"worker-analysis/pkg/llm"
	"worker-analysis/pkg/storage"
	"worker-analysis/pkg/transcode"
	"worker-analysis/repository"
	"worker-analysis/service"
)

type dependencies struct {
	repo     repository.ProcessingRepository
	storage  *storage.Minio
	records  *service.RecordTracker
	prompts  *service.PromptResolver
	pipeline *service.Pipeline
	reports  *service.ReportService
}

func buildDependencies(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	repo, err := repository.NewRepo(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	if err := repo.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	objects := storage.NewMinio(cfg.Storage, cfg.MinIOBucket, cfg.Pipeline.ChunkSize)
	if err := objects.EnsureBucket(ctx); err != nil {
		return nil, err
	}

	var cache service.PromptCache
	if cfg.Redis != nil {
		client, err := config.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("prompt cache disabled")
		} else {
			cache = repository.NewPromptCache(client, cfg.Pipeline.PromptCacheTTL)
		}
	}

	model, err := llm.NewGemini(ctx, llm.Config{APIKey: cfg.LLM.APIKey, Model: cfg.LLM.Model})
	if err != nil {
		return nil, err
	}
	if err := model.Validate(ctx); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("model", model.Model()).Msg("model validation failed")
	}

	records := service.NewRecordTracker(repo)
	prompts := service.NewPromptResolver(repo, cache)
	transcoder := transcode.NewTranscoder(
		transcode.NewFFmpegFactory(cfg.Pipeline.FFmpegPath, cfg.Pipeline.WorkDir),
		cfg.Pipeline.TranscodeHeight,
	)

	return &dependencies{
		repo:     repo,
		storage:  objects,
		records:  records,
		prompts:  prompts,
		pipeline: service.NewPipeline(records, objects, prompts, model, transcoder, cfg.Pipeline.ChunkSize),
		reports:  service.NewReportService(repo, model.WithModel(cfg.LLM.MergeModel), prompts, cfg.Pipeline.MergeBudget),
	}, nil
}
