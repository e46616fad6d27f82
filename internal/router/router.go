package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	// Registers the OpenAPI document served under /swagger.
	_ "github.com/zuma-group/bill-integration-platform/docs"
	"github.com/zuma-group/bill-integration-platform/internal/handler"
	"github.com/zuma-group/bill-integration-platform/internal/middleware"
)

// Handlers groups the HTTP handlers mounted by Setup.
type Handlers struct {
	Health     *handler.HealthHandler
	OCR        *handler.OCRHandler
	Sync       *handler.SyncHandler
	Invoice    *handler.InvoiceHandler
	Attachment *handler.AttachmentHandler
	Gmail      *handler.GmailHandler
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(h Handlers, allowedOrigins []string, ocrLimiter *middleware.IPRateLimiter) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(allowedOrigins))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")

	ocr := v1.Group("/ocr")
	if ocrLimiter != nil {
		ocr.Use(middleware.RateLimit(ocrLimiter))
	}
	ocr.POST("", h.OCR.Extract)

	v1.POST("/push-to-odoo", h.Sync.Push)
	v1.GET("/push-to-odoo", h.Sync.Status)

	// Static segments are registered alongside :id; gin prefers them.
	invoices := v1.Group("/invoices")
	invoices.GET("", h.Invoice.List)
	invoices.POST("", h.Invoice.Create)
	invoices.GET("/export", h.Invoice.Export)
	invoices.GET("/pending", h.Invoice.Pending)
	invoices.POST("/upload-to-s3", h.Attachment.Upload)
	invoices.GET("/:id", h.Invoice.GetByID)
	invoices.PATCH("/:id", h.Invoice.Update)
	invoices.DELETE("/:id", h.Invoice.Delete)

	v1.GET("/attachments/:filename", h.Attachment.Get)

	gmail := v1.Group("/gmail")
	gmail.GET("/poll", h.Gmail.Poll)
	gmail.POST("/poll", h.Gmail.Poll)
	gmail.POST("/notifications", h.Gmail.Notification)
	gmail.POST("/watch", h.Gmail.Watch)
	gmail.GET("/auth", h.Gmail.Auth)
	gmail.GET("/callback", h.Gmail.Callback)

	return r
}
