package service

import (
	"context"
	"errors"
	"github.com/rs/zerolog"
	"strings"
	"worker-analysis/constant"
	"worker-analysis/pkg/analysis"
	"worker-analysis/pkg/apperror"
	"worker-analysis/repository"
)

const DefaultAnalysisPrompt = "Analyze the non-verbal communication and body language in this video segment, noting any significant patterns or moments."

// PromptResolver looks up analysis instructions: cache first, then the
// store, then the built-in default for the category.
type PromptResolver struct {
	store Store
	cache PromptCache
}

// NewPromptResolver accepts a nil cache.
func NewPromptResolver(store Store, cache PromptCache) *PromptResolver {
	return &PromptResolver{store: store, cache: cache}
}

func (r *PromptResolver) Resolve(ctx context.Context, audience constant.TargetAudience) (string, error) {
	return r.Prompt(ctx, constant.CategoryFor(audience))
}

func (r *PromptResolver) Prompt(ctx context.Context, category constant.PromptCategory) (string, error) {
	logger := zerolog.Ctx(ctx)
	if r.cache != nil {
		prompt, ok, err := r.cache.Get(ctx, category)
		if err != nil {
			logger.Warn().Err(err).Str("category", category.String()).Msg("prompt cache lookup failed")
		} else if ok {
			return prompt, nil
		}
	}

	prompt, err := r.store.SelectPromptByCategory(ctx, category)
	if errors.Is(err, repository.ErrPromptNotFound) {
		logger.Debug().Str("category", category.String()).Msg("no stored prompt, using default")
		return defaultPrompt(category), nil
	}
	if err != nil {
		return "", apperror.New(constant.ErrorKindPromptFetch, err)
	}
	if strings.TrimSpace(prompt) == "" {
		return defaultPrompt(category), nil
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, category, prompt); err != nil {
			logger.Warn().Err(err).Str("category", category.String()).Msg("failed to cache prompt")
		}
	}
	return prompt, nil
}

// Update stores a new prompt for category and drops the cached copy.
func (r *PromptResolver) Update(ctx context.Context, category constant.PromptCategory, prompt string) error {
	if err := r.store.SavePrompt(ctx, category, prompt); err != nil {
		return err
	}
	if r.cache != nil {
		if err := r.cache.Invalidate(ctx, category); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("category", category.String()).Msg("failed to invalidate cached prompt")
		}
	}
	return nil
}

func defaultPrompt(category constant.PromptCategory) string {
	if category == constant.PromptCategoryMerge {
		return analysis.DefaultMergeInstruction
	}
	return DefaultAnalysisPrompt
}
