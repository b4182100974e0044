package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"chefai/internal/logger"
	"chefai/internal/web"
)

// NewRouter wires the page, form and JSON routes onto a gin engine.
func NewRouter(h *Handler, allowOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), logger.Middleware(h.Log))

	// multipart bodies above this are spooled to disk by net/http
	r.MaxMultipartMemory = h.MaxUploadBytes

	if len(allowOrigins) > 0 {
		// Configure CORS middleware
		r.Use(cors.New(cors.Config{
			AllowOrigins:     allowOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.SetHTMLTemplate(web.Templates())
	r.StaticFS("/static", http.FS(web.Static()))

	r.GET("/", h.Page)
	r.POST("/image", h.LoadImage)
	r.POST("/analyze", h.Analyze)
	r.POST("/reset", h.Reset)
	r.GET("/healthz", h.Health)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/session", h.GetSession)
		apiGroup.POST("/analyze", h.AnalyzeUpload)
	}

	return r
}
