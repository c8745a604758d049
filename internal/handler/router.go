package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/uchennaezeilo/ExamCert/internal/middleware"
)

// Router собирает обработчики и middleware в маршруты API
type Router struct {
	Auth    *AuthHandler
	Catalog *CatalogHandler
	Exam    *ExamHandler
	Health  *HealthHandler

	AuthMiddleware *middleware.AuthMiddleware
	// AuthLimiter ограничивает публичные auth-эндпоинты; nil - без ограничения
	AuthLimiter gin.HandlerFunc
}

// Register навешивает все маршруты на группу. Вызывается для "/" и для "/api".
func (r *Router) Register(g *gin.RouterGroup) {
	requireAuth := r.AuthMiddleware.RequireAuth()

	g.GET("/", r.Health.Root)
	g.GET("/health", r.Health.Health)

	// Аутентификация
	authGroup := g.Group("/auth")
	{
		public := authGroup.Group("")
		if r.AuthLimiter != nil {
			public.Use(r.AuthLimiter)
		}
		public.POST("/register", r.Auth.Register)
		public.POST("/login", r.Auth.Login)
		public.POST("/forgot-password", r.Auth.ForgotPassword)
		public.POST("/reset-password", r.Auth.ResetPassword)

		authed := authGroup.Group("", requireAuth)
		authed.POST("/change-password", r.Auth.ChangePassword)
		authed.GET("/me", r.Auth.GetMe)
	}

	// Каталог
	certs := g.Group("/certifications")
	{
		certs.GET("", r.Catalog.ListCertifications)

		certWithID := certs.Group("/:id", middleware.ExtractUintParam("id", "certificationID"))
		certWithID.GET("", r.Catalog.GetCertification)
		certWithID.GET("/questions", requireAuth, r.Catalog.ListCertificationQuestions)
	}

	questions := g.Group("/questions")
	{
		questions.GET("", r.AuthMiddleware.OptionalAuth(), r.Catalog.ListQuestions)
		questions.POST("", requireAuth, r.Catalog.CreateQuestion)
	}

	// Попытки экзамена
	exams := g.Group("/exams", requireAuth)
	{
		exams.POST("/start", r.Exam.Start)
		exams.POST("/answer", r.Exam.Answer)
		exams.POST("/finish", r.Exam.Finish)
		exams.GET("/active", r.Exam.Active)
		exams.GET("/history", r.Exam.History)
		exams.GET("/history/export", r.Exam.ExportHistory)
		exams.GET("/:id/review", middleware.ExtractUintParam("id", "attemptID"), r.Exam.Review)
	}
}
