package handler

import (
	"context"
	"errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"io"
	"net/http"
	"strconv"
	"worker-analysis/constant"
	"worker-analysis/dto"
	"worker-analysis/entities"
	"worker-analysis/pkg/apperror"
	"worker-analysis/repository"
	"worker-analysis/service"
)

type RecordService interface {
	Find(ctx context.Context, id uuid.UUID) (*entities.ProcessingRecord, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type ReportMerger interface {
	Merge(ctx context.Context, ids []uuid.UUID) (string, error)
}

type PromptUpdater interface {
	Update(ctx context.Context, category constant.PromptCategory, prompt string) error
}

type HTTPHandler struct {
	analyzer      Analyzer
	records       RecordService
	reports       ReportMerger
	prompts       PromptUpdater
	maxUploadSize int64
}

func NewHTTPHandler(analyzer Analyzer, records RecordService, reports ReportMerger, prompts PromptUpdater, maxUploadSize int64) *HTTPHandler {
	return &HTTPHandler{
		analyzer:      analyzer,
		records:       records,
		reports:       reports,
		prompts:       prompts,
		maxUploadSize: maxUploadSize,
	}
}

func (h *HTTPHandler) Register(r gin.IRouter) {
	v1 := r.Group("/api/v1")
	v1.POST("/analyses", h.createAnalysis)
	v1.GET("/analyses/:id", h.getAnalysis)
	v1.DELETE("/analyses/:id", h.deleteAnalysis)
	v1.POST("/reports", h.createReport)
	v1.PUT("/prompts/:category", h.updatePrompt)
}

func (h *HTTPHandler) createAnalysis(c *gin.Context) {
	userId := c.PostForm("userId")
	if userId == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "userId is required"})
		return
	}
	transcode := false
	if raw := c.PostForm("transcode"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "transcode must be a boolean"})
			return
		}
		transcode = parsed
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "file is required"})
		return
	}
	if h.maxUploadSize > 0 && header.Size > h.maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: "file too large"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	result, err := h.analyzer.Run(c.Request.Context(), service.Submission{
		UserId:    userId,
		FileName:  header.Filename,
		Asset:     entities.NewVideoAsset(data, mimeType),
		Target:    constant.TargetAudience(c.PostForm("target")),
		Transcode: transcode,
	})
	if err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("analysis failed")
		c.JSON(statusForKind(err), result)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *HTTPHandler) getAnalysis(c *gin.Context) {
	id, ok := parseId(c)
	if !ok {
		return
	}
	record, err := h.records.Find(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusForError(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *HTTPHandler) deleteAnalysis(c *gin.Context) {
	id, ok := parseId(c)
	if !ok {
		return
	}
	if err := h.records.SoftDelete(c.Request.Context(), id); err != nil {
		c.JSON(statusForError(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) createReport(c *gin.Context) {
	var req dto.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	report, err := h.reports.Merge(c.Request.Context(), req.RecordIds)
	if err != nil {
		c.JSON(statusForError(err), errorResponse(err))
		return
	}
	c.JSON(http.StatusOK, dto.ReportResponse{RecordIds: req.RecordIds, Report: report})
}

func (h *HTTPHandler) updatePrompt(c *gin.Context) {
	category := constant.PromptCategory(c.Param("category"))
	if !category.IsValid() {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "unknown prompt category"})
		return
	}
	var req dto.PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if err := h.prompts.Update(c.Request.Context(), category, req.Prompt); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func parseId(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

func errorResponse(err error) dto.ErrorResponse {
	resp := dto.ErrorResponse{Error: err.Error()}
	if kind, ok := apperror.KindOf(err); ok {
		k := kind.String()
		resp.ErrorKind = &k
	}
	return resp
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, repository.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrInvalidTransition), errors.Is(err, service.ErrRecordNotCompleted):
		return http.StatusConflict
	default:
		return statusForKind(err)
	}
}

func statusForKind(err error) int {
	kind, _ := apperror.KindOf(err)
	switch kind {
	case constant.ErrorKindModelValidation, constant.ErrorKindModelInvocation, constant.ErrorKindMerge:
		return http.StatusBadGateway
	case constant.ErrorKindCancellation:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
