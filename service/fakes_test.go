package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"io"
	"iter"
	"sync"
	"worker-analysis/constant"
	"worker-analysis/entities"
	"worker-analysis/pkg/llm"
	"worker-analysis/repository"
)

type transition struct {
	id     uuid.UUID
	status constant.ProcessingStatus
}

type fakeStore struct {
	mu          sync.Mutex
	records     map[uuid.UUID]*entities.ProcessingRecord
	prompts     map[constant.PromptCategory]string
	transitions []transition

	createErr     error
	promptErr     error
	transitionErr map[constant.ProcessingStatus]error
	promptLookups int
	// rejectCancelled makes status writes fail once their context is done.
	rejectCancelled bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records:       map[uuid.UUID]*entities.ProcessingRecord{},
		prompts:       map[constant.PromptCategory]string{},
		transitionErr: map[constant.ProcessingStatus]error{},
	}
}

func (s *fakeStore) CreateRecord(_ context.Context, record *entities.ProcessingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return s.createErr
	}
	record.ID = uuid.New()
	copied := *record
	s.records[record.ID] = &copied
	return nil
}

func (s *fakeStore) FindRecordById(_ context.Context, id uuid.UUID) (*entities.ProcessingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", repository.ErrRecordNotFound, id)
	}
	copied := *record
	return &copied, nil
}

func (s *fakeStore) FindRecordsByIds(ctx context.Context, ids []uuid.UUID) ([]*entities.ProcessingRecord, error) {
	records := make([]*entities.ProcessingRecord, 0, len(ids))
	for _, id := range ids {
		record, err := s.FindRecordById(ctx, id)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *fakeStore) TransitionStatus(ctx context.Context, id uuid.UUID, next constant.ProcessingStatus, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transitions = append(s.transitions, transition{id: id, status: next})
	if s.rejectCancelled && ctx.Err() != nil {
		return ctx.Err()
	}
	if err := s.transitionErr[next]; err != nil {
		return err
	}
	record, ok := s.records[id]
	if !ok {
		return repository.ErrRecordNotFound
	}
	if !record.Status.CanTransitionTo(next) {
		return repository.ErrInvalidTransition
	}
	record.Status = next
	for k, v := range fields {
		switch k {
		case "analysis_text":
			text := v.(string)
			record.AnalysisText = &text
		case "failure_reason":
			reason := v.(string)
			record.FailureReason = &reason
		case "is_chunked":
			record.IsChunked = v.(bool)
		case "metadata":
			record.Metadata = v.(datatypes.JSON)
		}
	}
	return nil
}

func (s *fakeStore) SoftDeleteRecord(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return repository.ErrRecordNotFound
	}
	if !record.Status.IsTerminal() {
		return repository.ErrInvalidTransition
	}
	delete(s.records, id)
	return nil
}

func (s *fakeStore) SelectPromptByCategory(_ context.Context, category constant.PromptCategory) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promptLookups++
	if s.promptErr != nil {
		return "", s.promptErr
	}
	prompt, ok := s.prompts[category]
	if !ok {
		return "", repository.ErrPromptNotFound
	}
	return prompt, nil
}

func (s *fakeStore) SavePrompt(_ context.Context, category constant.PromptCategory, prompt string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts[category] = prompt
	return nil
}

func (s *fakeStore) statusOf(id uuid.UUID) constant.ProcessingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id].Status
}

func (s *fakeStore) transitionsTo(status constant.ProcessingStatus) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.transitions {
		if t.status == status {
			n++
		}
	}
	return n
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	putErr  error
	puts    int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (s *fakeStorage) Put(_ context.Context, path string, r io.Reader, size int64, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return fmt.Errorf("short write: %d of %d", len(data), size)
	}
	s.objects[path] = data
	s.types[path] = contentType
	return nil
}

func (s *fakeStorage) Get(_ context.Context, path string) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[path]
	if !ok {
		return nil, "", errors.New("object not found")
	}
	return data, s.types[path], nil
}

type fakeModel struct {
	mu      sync.Mutex
	calls   [][]llm.Part
	respond func(call int, parts []llm.Part) (string, error)
}

func (m *fakeModel) Generate(_ context.Context, parts ...llm.Part) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, parts)
	if m.respond == nil {
		return "analysis", nil
	}
	return m.respond(len(m.calls), parts)
}

func (m *fakeModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type fakeTranscoder struct {
	output entities.VideoAsset
	err    error
	calls  int
}

func (t *fakeTranscoder) Transcode(ctx context.Context, _ entities.VideoAsset) iter.Seq2[entities.VideoAsset, error] {
	return func(yield func(entities.VideoAsset, error) bool) {
		t.calls++
		if t.err != nil {
			yield(entities.VideoAsset{}, t.err)
			return
		}
		if ctx.Err() != nil {
			return
		}
		yield(t.output, nil)
	}
}

type fakeCache struct {
	entries     map[constant.PromptCategory]string
	getErr      error
	sets        int
	invalidated []constant.PromptCategory
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[constant.PromptCategory]string{}}
}

func (c *fakeCache) Get(_ context.Context, category constant.PromptCategory) (string, bool, error) {
	if c.getErr != nil {
		return "", false, c.getErr
	}
	prompt, ok := c.entries[category]
	return prompt, ok, nil
}

func (c *fakeCache) Set(_ context.Context, category constant.PromptCategory, prompt string) error {
	c.sets++
	c.entries[category] = prompt
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, category constant.PromptCategory) error {
	c.invalidated = append(c.invalidated, category)
	delete(c.entries, category)
	return nil
}
