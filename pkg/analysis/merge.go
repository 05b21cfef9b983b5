package analysis

import (
	"context"
	"errors"
	"fmt"
	"github.com/rs/zerolog"
	"strings"
	"worker-analysis/constant"
	"worker-analysis/pkg/apperror"
	"worker-analysis/pkg/llm"
)

const DefaultMergeInstruction = "Merge these analyses chronologically:"

var ErrNothingToMerge = errors.New("no analyses to merge")

type Generator interface {
	Generate(ctx context.Context, parts ...llm.Part) (string, error)
}

type PromptSource interface {
	Prompt(ctx context.Context, category constant.PromptCategory) (string, error)
}

// Merger reduces many analysis fragments into one report: one model call
// per batch, in order, then a single consolidation call when there was more
// than one batch.
type Merger struct {
	model   Generator
	prompts PromptSource
	budget  int
	// observe is called after every model call with the call site.
	observe func(site string)
}

func NewMerger(model Generator, prompts PromptSource, budget int) *Merger {
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Merger{
		model:   model,
		prompts: prompts,
		budget:  budget,
	}
}

// OnModelCall registers a hook run after each model call.
func (m *Merger) OnModelCall(fn func(site string)) {
	m.observe = fn
}

func (m *Merger) Merge(ctx context.Context, fragments []string) (string, error) {
	logger := zerolog.Ctx(ctx)
	if len(fragments) == 0 {
		return "", apperror.New(constant.ErrorKindMerge, ErrNothingToMerge)
	}

	instruction, err := m.instruction(ctx)
	if err != nil {
		return "", apperror.New(constant.ErrorKindMerge, err)
	}

	batches := Batches(fragments, m.budget)
	logger.Info().Int("fragments", len(fragments)).Int("batches", len(batches)).Msg("merging analyses")

	summaries := make([]string, 0, len(batches))
	for i, batch := range batches {
		logger.Info().Int("batch", i+1).Int("total", len(batches)).Int("size", batch.Size).Msg("processing merge batch")
		prompt := fmt.Sprintf("%s\n\nChunk %d/%d:\n\n%s", instruction, i+1, len(batches), strings.Join(batch.Fragments, "\n\n"))
		text, err := m.call(ctx, "merge_map", prompt)
		if err != nil {
			return "", apperror.New(constant.ErrorKindMerge, fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err))
		}
		summaries = append(summaries, text)
	}

	if len(summaries) == 1 {
		return summaries[0], nil
	}

	prompt := fmt.Sprintf("%s\n\nFinal merge of all chunks:\n\n%s", instruction, strings.Join(summaries, "\n\n"))
	text, err := m.call(ctx, "merge_reduce", prompt)
	if err != nil {
		return "", apperror.New(constant.ErrorKindMerge, fmt.Errorf("final merge: %w", err))
	}
	return text, nil
}

func (m *Merger) instruction(ctx context.Context) (string, error) {
	if m.prompts == nil {
		return DefaultMergeInstruction, nil
	}
	instruction, err := m.prompts.Prompt(ctx, constant.PromptCategoryMerge)
	if err != nil {
		return "", fmt.Errorf("fetch merge prompt: %w", err)
	}
	if strings.TrimSpace(instruction) == "" {
		return DefaultMergeInstruction, nil
	}
	return instruction, nil
}

func (m *Merger) call(ctx context.Context, site, prompt string) (string, error) {
	text, err := m.model.Generate(ctx, llm.Text(prompt))
	if m.observe != nil {
		m.observe(site)
	}
	return text, err
}
