package entities

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"time"
	"worker-analysis/constant"
)

type ProcessingRecord struct {
	ID            uuid.UUID                 `json:"id" gorm:"type:uuid;primary_key"`
	UserId        string                    `json:"user_id" gorm:"type:varchar(255);not null;index:idx_video_processing_user_id"`
	Filename      string                    `json:"filename" gorm:"type:varchar(500);not null"`
	StoragePath   string                    `json:"storage_path" gorm:"type:varchar(1000);not null"`
	Status        constant.ProcessingStatus `json:"status" gorm:"type:varchar(20);not null;index:idx_video_processing_status"`
	IsChunked     bool                      `json:"is_chunked" gorm:"not null;default:false"`
	AnalysisText  *string                   `json:"analysis_text" gorm:"type:text"`
	FailureReason *string                   `json:"failure_reason" gorm:"type:text"`
	Metadata      datatypes.JSON            `json:"metadata"`
	CreatedAt     time.Time                 `json:"created_at"`
	UpdatedAt     time.Time                 `json:"updated_at"`
	DeletedAt     gorm.DeletedAt            `json:"deleted_at" gorm:"index"`
}

func (ProcessingRecord) TableName() string {
	return "video_processing"
}

func (r *ProcessingRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// AssetMetadata is stored in the record's metadata column.
type AssetMetadata struct {
	MimeType   string `json:"mime_type"`
	Size       int64  `json:"size"`
	Transcoded bool   `json:"transcoded"`
	ChunkCount int    `json:"chunk_count"`
}
