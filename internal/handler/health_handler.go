package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger проверяет доступность хранилища. *sql.DB удовлетворяет интерфейсу.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler отвечает на проверки живости
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler создает обработчик проверок
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Root - баннер сервиса
func (h *HealthHandler) Root(c *gin.Context) {
	c.String(http.StatusOK, "Cert Exam API Running")
}

// Health проверяет соединение с PostgreSQL
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		log.Printf("[HealthHandler] PostgreSQL недоступен: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
