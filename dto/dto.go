package dto

import (
	"github.com/google/uuid"
	"worker-analysis/constant"
)

// AnalysisMessage asks the worker to analyze an object already in storage.
type AnalysisMessage struct {
	UserId         string `json:"userId"`
	ObjectPath     string `json:"objectPath"`
	FileName       string `json:"fileName"`
	MimeType       string `json:"mimeType"`
	TargetAudience string `json:"targetAudience"`
	Transcode      bool   `json:"transcode"`
}

type ProcessingResult struct {
	RecordId     *uuid.UUID                `json:"recordId"`
	Status       constant.ProcessingStatus `json:"status"`
	AnalysisText *string                   `json:"analysisText"`
	ErrorKind    *string                   `json:"errorKind"`
}

type ReportRequest struct {
	RecordIds []uuid.UUID `json:"recordIds" binding:"required,min=1"`
}

type ReportResponse struct {
	RecordIds []uuid.UUID `json:"recordIds"`
	Report    string      `json:"report"`
}

type PromptRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

type ErrorResponse struct {
	Error     string  `json:"error"`
	ErrorKind *string `json:"errorKind,omitempty"`
}
