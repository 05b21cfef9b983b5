package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"worker-analysis/constant"
	"worker-analysis/pkg/analysis"
	"worker-analysis/pkg/apperror"
	"worker-analysis/pkg/metrics"
)

var ErrRecordNotCompleted = errors.New("record has no completed analysis")

type ReportService struct {
	store  Store
	merger *analysis.Merger
}

func NewReportService(store Store, model Model, prompts *PromptResolver, budget int) *ReportService {
	var source analysis.PromptSource
	if prompts != nil {
		source = prompts
	}
	merger := analysis.NewMerger(model, source, budget)
	merger.OnModelCall(func(site string) {
		metrics.ModelCallsTotal.WithLabelValues(site).Inc()
	})
	return &ReportService{
		store:  store,
		merger: merger,
	}
}

// Merge combines the analyses of the given records, in the given order,
// into one report. Every record must exist and be completed before any
// model call is made.
func (s *ReportService) Merge(ctx context.Context, ids []uuid.UUID) (string, error) {
	if len(ids) == 0 {
		return "", apperror.New(constant.ErrorKindMerge, analysis.ErrNothingToMerge)
	}

	records, err := s.store.FindRecordsByIds(ctx, ids)
	if err != nil {
		return "", err
	}

	fragments := make([]string, 0, len(records))
	for _, record := range records {
		if record.Status != constant.ProcessingStatusCompleted || record.AnalysisText == nil {
			return "", fmt.Errorf("%w: %s is %s", ErrRecordNotCompleted, record.ID, record.Status)
		}
		fragments = append(fragments, *record.AnalysisText)
	}

	zerolog.Ctx(ctx).Info().Int("records", len(records)).Msg("merging record analyses")
	report, err := s.merger.Merge(ctx, fragments)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to merge analyses")
		return "", err
	}
	return report, nil
}
