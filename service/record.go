package service

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"worker-analysis/constant"
	"worker-analysis/entities"
	"worker-analysis/pkg/apperror"
	"worker-analysis/pkg/metrics"
)

// RecordTracker owns the lifecycle of processing records.
type RecordTracker struct {
	store Store
}

func NewRecordTracker(store Store) *RecordTracker {
	return &RecordTracker{store: store}
}

func (t *RecordTracker) Create(ctx context.Context, userId, filename, storagePath string) (*entities.ProcessingRecord, error) {
	record := &entities.ProcessingRecord{
		UserId:      userId,
		Filename:    filename,
		StoragePath: storagePath,
		Status:      constant.ProcessingStatusUploading,
	}
	if err := t.store.CreateRecord(ctx, record); err != nil {
		return nil, apperror.New(constant.ErrorKindCreation, err)
	}
	if record.ID == uuid.Nil {
		return nil, apperror.New(constant.ErrorKindCreation, fmt.Errorf("store returned no record id"))
	}
	return record, nil
}

func (t *RecordTracker) MarkUploaded(ctx context.Context, id uuid.UUID, isChunked bool, meta entities.AssetMetadata) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return t.store.TransitionStatus(ctx, id, constant.ProcessingStatusUploaded, map[string]interface{}{
		"is_chunked": isChunked,
		"metadata":   datatypes.JSON(raw),
	})
}

func (t *RecordTracker) MarkCompleted(ctx context.Context, id uuid.UUID, analysisText string) error {
	return t.store.TransitionStatus(ctx, id, constant.ProcessingStatusCompleted, map[string]interface{}{
		"analysis_text": analysisText,
	})
}

// MarkFailed is a best-effort write. Its own failure is logged and counted,
// never returned.
func (t *RecordTracker) MarkFailed(ctx context.Context, id uuid.UUID, reason string) {
	err := t.store.TransitionStatus(ctx, id, constant.ProcessingStatusFailed, map[string]interface{}{
		"failure_reason": reason,
	})
	if err != nil {
		metrics.BestEffortWriteFailures.Inc()
		zerolog.Ctx(ctx).Error().Err(err).Str("record_id", id.String()).Msg("failed to mark record as failed")
	}
}

func (t *RecordTracker) Find(ctx context.Context, id uuid.UUID) (*entities.ProcessingRecord, error) {
	return t.store.FindRecordById(ctx, id)
}

func (t *RecordTracker) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if err := t.store.SoftDeleteRecord(ctx, id); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("record_id", id.String()).Msg("record deleted")
	return nil
}
