package repository

import (
	"context"
	"errors"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"testing"
	"worker-analysis/constant"
	"worker-analysis/entities"
)

func newTestRepo(t *testing.T) ProcessingRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	r := NewRepoWithDB(db)
	if err := r.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	return r
}

func newRecord(t *testing.T, r ProcessingRepository) *entities.ProcessingRecord {
	t.Helper()
	record := &entities.ProcessingRecord{
		UserId:      "user-1",
		Filename:    "talk.mp4",
		StoragePath: "user-1/1700000000000_talk.mp4",
		Status:      constant.ProcessingStatusUploading,
	}
	if err := r.CreateRecord(context.Background(), record); err != nil {
		t.Fatalf("CreateRecord failed: %v", err)
	}
	return record
}

func TestCreateAssignsId(t *testing.T) {
	r := newTestRepo(t)
	record := newRecord(t, r)
	if record.ID == uuid.Nil {
		t.Fatal("expected an id to be assigned")
	}

	fetched, err := r.FindRecordById(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("FindRecordById failed: %v", err)
	}
	if fetched.Status != constant.ProcessingStatusUploading || fetched.Filename != "talk.mp4" {
		t.Fatalf("unexpected record: %#v", fetched)
	}
}

func TestFindMissingRecord(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.FindRecordById(context.Background(), uuid.New())
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestTransitionHappyPath(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	record := newRecord(t, r)

	if err := r.TransitionStatus(ctx, record.ID, constant.ProcessingStatusUploaded, map[string]interface{}{"is_chunked": true}); err != nil {
		t.Fatalf("uploaded transition failed: %v", err)
	}
	if err := r.TransitionStatus(ctx, record.ID, constant.ProcessingStatusCompleted, map[string]interface{}{"analysis_text": "great talk"}); err != nil {
		t.Fatalf("completed transition failed: %v", err)
	}

	fetched, err := r.FindRecordById(ctx, record.ID)
	if err != nil {
		t.Fatalf("FindRecordById failed: %v", err)
	}
	if fetched.Status != constant.ProcessingStatusCompleted {
		t.Errorf("status = %s", fetched.Status)
	}
	if !fetched.IsChunked {
		t.Error("expected is_chunked to be set")
	}
	if fetched.AnalysisText == nil || *fetched.AnalysisText != "great talk" {
		t.Errorf("analysis text = %v", fetched.AnalysisText)
	}
}

func TestTransitionRejectsIllegalMoves(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	record := newRecord(t, r)
	if err := r.TransitionStatus(ctx, record.ID, constant.ProcessingStatusCompleted, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("completed before uploaded must fail, got %v", err)
	}

	if err := r.TransitionStatus(ctx, record.ID, constant.ProcessingStatusFailed, map[string]interface{}{"failure_reason": "boom"}); err != nil {
		t.Fatalf("failed transition failed: %v", err)
	}
	for _, next := range []constant.ProcessingStatus{
		constant.ProcessingStatusUploaded,
		constant.ProcessingStatusCompleted,
		constant.ProcessingStatusFailed,
		constant.ProcessingStatusUploading,
	} {
		if err := r.TransitionStatus(ctx, record.ID, next, nil); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("terminal record moved to %s: %v", next, err)
		}
	}

	fetched, err := r.FindRecordById(ctx, record.ID)
	if err != nil {
		t.Fatalf("FindRecordById failed: %v", err)
	}
	if fetched.Status != constant.ProcessingStatusFailed {
		t.Fatalf("terminal status regressed to %s", fetched.Status)
	}
}

func TestTransitionMissingRecord(t *testing.T) {
	r := newTestRepo(t)
	err := r.TransitionStatus(context.Background(), uuid.New(), constant.ProcessingStatusUploaded, nil)
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestSoftDeleteOnlyTerminal(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	record := newRecord(t, r)

	if err := r.SoftDeleteRecord(ctx, record.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("deleting an active record must fail, got %v", err)
	}

	if err := r.TransitionStatus(ctx, record.ID, constant.ProcessingStatusFailed, nil); err != nil {
		t.Fatalf("failed transition failed: %v", err)
	}
	if err := r.SoftDeleteRecord(ctx, record.ID); err != nil {
		t.Fatalf("SoftDeleteRecord failed: %v", err)
	}
	if _, err := r.FindRecordById(ctx, record.ID); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("soft-deleted record still visible: %v", err)
	}

	var raw entities.ProcessingRecord
	if err := r.GetDB().Unscoped().First(&raw, "id = ?", record.ID).Error; err != nil {
		t.Fatalf("row should still exist: %v", err)
	}
	if !raw.DeletedAt.Valid {
		t.Fatal("deleted_at not set")
	}
}

func TestFindRecordsByIdsKeepsOrder(t *testing.T) {
	r := newTestRepo(t)
	a, b, c := newRecord(t, r), newRecord(t, r), newRecord(t, r)

	records, err := r.FindRecordsByIds(context.Background(), []uuid.UUID{c.ID, a.ID, b.ID})
	if err != nil {
		t.Fatalf("FindRecordsByIds failed: %v", err)
	}
	want := []uuid.UUID{c.ID, a.ID, b.ID}
	for i, record := range records {
		if record.ID != want[i] {
			t.Fatalf("position %d = %s, want %s", i, record.ID, want[i])
		}
	}

	if _, err := r.FindRecordsByIds(context.Background(), []uuid.UUID{a.ID, uuid.New()}); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestPrompts(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	if _, err := r.SelectPromptByCategory(ctx, constant.PromptCategoryHost); !errors.Is(err, ErrPromptNotFound) {
		t.Fatalf("expected ErrPromptNotFound, got %v", err)
	}

	if err := r.SavePrompt(ctx, constant.PromptCategoryHost, "v1"); err != nil {
		t.Fatalf("SavePrompt failed: %v", err)
	}
	if err := r.SavePrompt(ctx, constant.PromptCategoryHost, "v2"); err != nil {
		t.Fatalf("SavePrompt overwrite failed: %v", err)
	}
	got, err := r.SelectPromptByCategory(ctx, constant.PromptCategoryHost)
	if err != nil {
		t.Fatalf("SelectPromptByCategory failed: %v", err)
	}
	if got != "v2" {
		t.Fatalf("prompt = %q, want v2", got)
	}
}
