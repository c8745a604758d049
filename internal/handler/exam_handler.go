package handler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/uchennaezeilo/ExamCert/internal/domain/entity"
	"github.com/uchennaezeilo/ExamCert/internal/handler/dto"
	"github.com/uchennaezeilo/ExamCert/internal/middleware"
	"github.com/uchennaezeilo/ExamCert/internal/service"
)

// ExamEngine - жизненный цикл попыток экзамена
type ExamEngine interface {
	Start(ctx context.Context, userID, certificationID uint) (*service.StartResult, error)
	Answer(ctx context.Context, userID uint, in service.AnswerInput) error
	Finish(ctx context.Context, userID, attemptID uint) (int, error)
	Active(ctx context.Context, userID uint) (*service.ActiveAttempt, error)
	History(ctx context.Context, userID uint) ([]entity.AttemptSummary, error)
	ExportHistory(ctx context.Context, userID uint, format string, w io.Writer) error
	Review(ctx context.Context, userID, attemptID uint) ([]entity.ReviewItem, error)
}

var exportContentTypes = map[string]string{
	service.ExportFormatCSV:  "text/csv; charset=utf-8",
	service.ExportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ExamHandler обрабатывает запросы к попыткам экзамена. Все маршруты требуют аутентификации.
type ExamHandler struct {
	exams ExamEngine
}

// NewExamHandler создает обработчик попыток
func NewExamHandler(exams ExamEngine) *ExamHandler {
	return &ExamHandler{exams: exams}
}

func (h *ExamHandler) requireUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated", "error_type": "unauthorized"})
	}
	return userID, ok
}

// Start начинает новую попытку или возобновляет незавершенную
func (h *ExamHandler) Start(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	var req dto.StartExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	result, err := h.exams.Start(c.Request.Context(), userID, req.CertificationID)
	if err != nil {
		handleServiceError(c, "ExamHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.StartExamResponse{AttemptID: result.AttemptID, Resumed: result.Resumed})
}

// Answer сохраняет ответ на вопрос
func (h *ExamHandler) Answer(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	var req dto.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	err := h.exams.Answer(c.Request.Context(), userID, service.AnswerInput{
		AttemptID:       req.AttemptID,
		QuestionID:      req.QuestionID,
		SelectedOption:  req.SelectedOption,
		CurrentQuestion: req.CurrentQuestion,
	})
	if err != nil {
		handleServiceError(c, "ExamHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Finish завершает попытку и возвращает балл
func (h *ExamHandler) Finish(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	var req dto.FinishExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	score, err := h.exams.Finish(c.Request.Context(), userID, req.AttemptID)
	if err != nil {
		handleServiceError(c, "ExamHandler", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"score": score})
}

// Active возвращает незавершенную попытку с ответами или null
func (h *ExamHandler) Active(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	active, err := h.exams.Active(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, "ExamHandler", err)
		return
	}
	if active == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, dto.ActiveAttemptResponse{
		Attempt: active.Attempt,
		Answers: dto.NewAnswerStateList(active.Answers),
		Expired: active.Expired,
	})
}

// History возвращает попытки пользователя, новые первыми
func (h *ExamHandler) History(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	rows, err := h.exams.History(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, "ExamHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewHistoryResponse(rows))
}

// ExportHistory отдает историю файлом: ?format=csv (по умолчанию) или xlsx
func (h *ExamHandler) ExportHistory(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	format := c.DefaultQuery("format", service.ExportFormatCSV)

	var buf bytes.Buffer
	if err := h.exams.ExportHistory(c.Request.Context(), userID, format, &buf); err != nil {
		handleServiceError(c, "ExamHandler", err)
		return
	}

	filename := fmt.Sprintf("exam-history-%s.%s", time.Now().UTC().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, exportContentTypes[format], buf.Bytes())
}

// Review возвращает разбор попытки по ID из контекста (ExtractUintParam)
func (h *ExamHandler) Review(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	items, err := h.exams.Review(c.Request.Context(), userID, c.GetUint("attemptID"))
	if err != nil {
		handleServiceError(c, "ExamHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewReviewResponse(items))
}
