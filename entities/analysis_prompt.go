package entities

import (
	"time"
	"worker-analysis/constant"
)

type AnalysisPrompt struct {
	ID         uint                    `json:"id" gorm:"primarykey"`
	TargetType constant.PromptCategory `json:"target_type" gorm:"type:varchar(50);not null;uniqueIndex"`
	Prompt     string                  `json:"prompt" gorm:"type:text;not null"`
	CreatedAt  time.Time               `json:"created_at"`
	UpdatedAt  time.Time               `json:"updated_at"`
}

func (AnalysisPrompt) TableName() string {
	return "analysis_prompts"
}
