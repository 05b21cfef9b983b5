package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"worker-analysis/constant"
	"worker-analysis/entities"
)

var (
	ErrRecordNotFound    = errors.New("processing record not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrPromptNotFound    = errors.New("analysis prompt not found")
)

type ProcessingRepository interface {
	GetDB() *gorm.DB
	Migrate(ctx context.Context) error
	CreateRecord(ctx context.Context, record *entities.ProcessingRecord) error
	FindRecordById(ctx context.Context, id uuid.UUID) (*entities.ProcessingRecord, error)
	FindRecordsByIds(ctx context.Context, ids []uuid.UUID) ([]*entities.ProcessingRecord, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, next constant.ProcessingStatus, fields map[string]interface{}) error
	SoftDeleteRecord(ctx context.Context, id uuid.UUID) error
	SelectPromptByCategory(ctx context.Context, category constant.PromptCategory) (string, error)
	SavePrompt(ctx context.Context, category constant.PromptCategory, prompt string) error
}

type repo struct {
	db *gorm.DB
}

func NewRepo(db *sql.DB) (ProcessingRepository, error) {
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		},
	)
	if err != nil {
		return nil, err
	}
	return NewRepoWithDB(gormDB), nil
}

func NewRepoWithDB(db *gorm.DB) ProcessingRepository {
	return &repo{
		db: db,
	}
}

func (r *repo) GetDB() *gorm.DB {
	return r.db
}

func (r *repo) Migrate(ctx context.Context) error {
	return r.GetDB().WithContext(ctx).AutoMigrate(&entities.ProcessingRecord{}, &entities.AnalysisPrompt{})
}

func (r *repo) CreateRecord(ctx context.Context, record *entities.ProcessingRecord) error {
	return r.GetDB().WithContext(ctx).Create(record).Error
}

func (r *repo) FindRecordById(ctx context.Context, id uuid.UUID) (*entities.ProcessingRecord, error) {
	record := &entities.ProcessingRecord{}
	err := r.GetDB().WithContext(ctx).First(record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return record, nil
}

// FindRecordsByIds returns the records in the order of ids. A missing id is
// an error.
func (r *repo) FindRecordsByIds(ctx context.Context, ids []uuid.UUID) ([]*entities.ProcessingRecord, error) {
	var found []*entities.ProcessingRecord
	err := r.GetDB().WithContext(ctx).Where("id IN ?", ids).Find(&found).Error
	if err != nil {
		return nil, err
	}

	byId := make(map[uuid.UUID]*entities.ProcessingRecord, len(found))
	for _, record := range found {
		byId[record.ID] = record
	}
	records := make([]*entities.ProcessingRecord, 0, len(ids))
	for _, id := range ids {
		record, ok := byId[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
		}
		records = append(records, record)
	}
	return records, nil
}

// TransitionStatus moves a record to next only if its current status is a
// legal predecessor. The check and the write are one statement.
func (r *repo) TransitionStatus(ctx context.Context, id uuid.UUID, next constant.ProcessingStatus, fields map[string]interface{}) error {
	predecessors := constant.Predecessors(next)
	if len(predecessors) == 0 {
		return fmt.Errorf("%w: %s is not a persisted target", ErrInvalidTransition, next)
	}

	updates := map[string]interface{}{"status": next}
	for k, v := range fields {
		updates[k] = v
	}

	result := r.GetDB().WithContext(ctx).
		Model(&entities.ProcessingRecord{}).
		Where("id = ? AND status IN ?", id, predecessors).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.rejectTransition(ctx, id, next)
	}
	return nil
}

func (r *repo) rejectTransition(ctx context.Context, id uuid.UUID, next constant.ProcessingStatus) error {
	current, err := r.FindRecordById(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next)
}

// SoftDeleteRecord sets deleted_at on a record in a terminal state.
func (r *repo) SoftDeleteRecord(ctx context.Context, id uuid.UUID) error {
	result := r.GetDB().WithContext(ctx).
		Where("id = ? AND status IN ?", id, constant.TerminalStatuses()).
		Delete(&entities.ProcessingRecord{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		current, err := r.FindRecordById(ctx, id)
		if err != nil {
			return err
		}
		return fmt.Errorf("%w: cannot delete a record in status %s", ErrInvalidTransition, current.Status)
	}
	return nil
}

func (r *repo) SelectPromptByCategory(ctx context.Context, category constant.PromptCategory) (string, error) {
	prompt := &entities.AnalysisPrompt{}
	err := r.GetDB().WithContext(ctx).First(prompt, "target_type = ?", category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("%w: %s", ErrPromptNotFound, category)
	}
	if err != nil {
		return "", err
	}
	return prompt.Prompt, nil
}

func (r *repo) SavePrompt(ctx context.Context, category constant.PromptCategory, text string) error {
	prompt := &entities.AnalysisPrompt{}
	err := r.GetDB().WithContext(ctx).Where(entities.AnalysisPrompt{TargetType: category}).
		Assign(entities.AnalysisPrompt{Prompt: text}).
		FirstOrCreate(prompt).Error
	if err != nil {
		return err
	}
	return nil
}
