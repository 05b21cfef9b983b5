package service

import (
	"context"
	"github.com/google/uuid"
	"io"
	"iter"
	"worker-analysis/constant"
	"worker-analysis/entities"
	"worker-analysis/pkg/llm"
)

// Store is the durable metadata store behind records and prompts.
type Store interface {
	CreateRecord(ctx context.Context, record *entities.ProcessingRecord) error
	FindRecordById(ctx context.Context, id uuid.UUID) (*entities.ProcessingRecord, error)
	FindRecordsByIds(ctx context.Context, ids []uuid.UUID) ([]*entities.ProcessingRecord, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, next constant.ProcessingStatus, fields map[string]interface{}) error
	SoftDeleteRecord(ctx context.Context, id uuid.UUID) error
	SelectPromptByCategory(ctx context.Context, category constant.PromptCategory) (string, error)
	SavePrompt(ctx context.Context, category constant.PromptCategory, prompt string) error
}

// ObjectStorage stores asset bytes under a path. Put overwrites.
type ObjectStorage interface {
	Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, path string) ([]byte, string, error)
}

type Model interface {
	Generate(ctx context.Context, parts ...llm.Part) (string, error)
}

type Transcoder interface {
	Transcode(ctx context.Context, asset entities.VideoAsset) iter.Seq2[entities.VideoAsset, error]
}

type PromptCache interface {
	Get(ctx context.Context, category constant.PromptCategory) (string, bool, error)
	Set(ctx context.Context, category constant.PromptCategory, prompt string) error
	Invalidate(ctx context.Context, category constant.PromptCategory) error
}
