package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/uchennaezeilo/ExamCert/internal/domain/entity"
	"github.com/uchennaezeilo/ExamCert/internal/handler/dto"
	"github.com/uchennaezeilo/ExamCert/internal/middleware"
	"github.com/uchennaezeilo/ExamCert/internal/service"
)

// CatalogProvider - чтение и пополнение каталога
type CatalogProvider interface {
	ListCertifications(ctx context.Context) ([]entity.Certification, error)
	GetCertification(ctx context.Context, id uint) (*entity.Certification, error)
	ListQuestions(ctx context.Context, certificationID *uint) ([]entity.Question, error)
	CreateQuestion(ctx context.Context, in service.CreateQuestionInput) (*entity.Question, error)
}

// CatalogHandler обрабатывает запросы к сертификациям и вопросам
type CatalogHandler struct {
	catalog CatalogProvider
}

// NewCatalogHandler создает обработчик каталога
func NewCatalogHandler(catalog CatalogProvider) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListCertifications возвращает все сертификации
func (h *CatalogHandler) ListCertifications(c *gin.Context) {
	certs, err := h.catalog.ListCertifications(c.Request.Context())
	if err != nil {
		handleServiceError(c, "CatalogHandler", err)
		return
	}
	if certs == nil {
		certs = []entity.Certification{}
	}
	c.JSON(http.StatusOK, certs)
}

// GetCertification возвращает сертификацию по ID из контекста (ExtractUintParam)
func (h *CatalogHandler) GetCertification(c *gin.Context) {
	cert, err := h.catalog.GetCertification(c.Request.Context(), c.GetUint("certificationID"))
	if err != nil {
		handleServiceError(c, "CatalogHandler", err)
		return
	}
	c.JSON(http.StatusOK, cert)
}

// ListCertificationQuestions возвращает вопросы сертификации вместе с правильными ответами
func (h *CatalogHandler) ListCertificationQuestions(c *gin.Context) {
	certID := c.GetUint("certificationID")
	questions, err := h.catalog.ListQuestions(c.Request.Context(), &certID)
	if err != nil {
		handleServiceError(c, "CatalogHandler", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuestionListResponse(questions, true))
}

// ListQuestions возвращает вопросы, опционально по ?certificationId=.
// Правильный ответ виден только аутентифицированным пользователям.
func (h *CatalogHandler) ListQuestions(c *gin.Context) {
	var certID *uint
	if raw := c.Query("certificationId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid certificationId", "error_type": "validation_error"})
			return
		}
		v := uint(id)
		certID = &v
	}

	questions, err := h.catalog.ListQuestions(c.Request.Context(), certID)
	if err != nil {
		handleServiceError(c, "CatalogHandler", err)
		return
	}

	_, authenticated := middleware.UserIDFromContext(c)
	c.JSON(http.StatusOK, dto.NewQuestionListResponse(questions, authenticated))
}

// CreateQuestion добавляет вопрос в каталог
func (h *CatalogHandler) CreateQuestion(c *gin.Context) {
	var req dto.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}

	question, err := h.catalog.CreateQuestion(c.Request.Context(), service.CreateQuestionInput{
		CertificationID: req.CertificationID,
		Question:        req.Question,
		OptionA:         req.OptionA,
		OptionB:         req.OptionB,
		OptionC:         req.OptionC,
		OptionD:         req.OptionD,
		OptionE:         req.OptionE,
		CorrectOption:   req.CorrectOption,
	})
	if err != nil {
		handleServiceError(c, "CatalogHandler", err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewQuestionResponse(question, true))
}
