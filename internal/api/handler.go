package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chefai/internal/analysis"
	"chefai/internal/imagedata"
	"chefai/internal/recipe"
	"chefai/internal/session"
	"chefai/internal/web"
)

// SessionCookie is the cookie holding the browser's session id.
const SessionCookie = "chefai_session"

// Analyzer defines the interface for turning a photo into recipes.
type Analyzer interface {
	Analyze(ctx context.Context, img *imagedata.Image) (*recipe.AnalysisResult, error)
}

// multipartOverhead is the room left above MaxUploadBytes for multipart
// boundaries and headers.
const multipartOverhead = 1 << 20

// Handler handles HTTP requests.
type Handler struct {
	// BaseContext is the parent of background analyses. Cancelling it stops
	// every analysis still running.
	BaseContext    context.Context
	Analyzer       Analyzer
	Sessions       *session.Store
	Log            *zap.Logger
	Timeout        time.Duration
	MaxUploadBytes int64
	SecureCookie   bool
}

// NewHandler creates a new Handler.
func NewHandler(analyzer Analyzer, sessions *session.Store, log *zap.Logger, timeout time.Duration, maxUploadBytes int64) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		BaseContext:    context.Background(),
		Analyzer:       analyzer,
		Sessions:       sessions,
		Log:            log,
		Timeout:        timeout,
		MaxUploadBytes: maxUploadBytes,
	}
}

// sessionFor returns the caller's session, creating one and setting the cookie
// when the request has none or it expired.
func (h *Handler) sessionFor(c *gin.Context) *session.Session {
	if id, err := c.Cookie(SessionCookie); err == nil {
		if s, ok := h.Sessions.Get(id); ok {
			return s
		}
	}
	s := h.Sessions.Create()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, s.ID, 0, "/", "", h.SecureCookie, true)
	return s
}

// Page renders the single page for the caller's session.
func (h *Handler) Page(c *gin.Context) {
	s := h.sessionFor(c)
	c.HTML(http.StatusOK, "page", web.PageData{
		View:        s.Snapshot(),
		Notice:      c.Query("notice"),
		MaxUploadMB: h.MaxUploadBytes >> 20,
	})
}

// LoadImage handles the photo upload and puts the session back to IDLE.
func (h *Handler) LoadImage(c *gin.Context) {
	s := h.sessionFor(c)

	img, err := h.readUpload(c)
	if err != nil {
		h.Log.Info("rejected upload", zap.String("session", s.ID), zap.Error(err))
		redirectHome(c, err.Error())
		return
	}

	s.LoadImage(img)
	h.Log.Debug("image loaded", zap.String("session", s.ID), zap.String("mime", img.MIMEType), zap.Int("bytes", len(img.Data)))
	redirectHome(c, "")
}

// Analyze starts an analysis of the session's photo in the background.
func (h *Handler) Analyze(c *gin.Context) {
	s := h.sessionFor(c)

	ctx, ticket, err := s.Begin(h.BaseContext)
	if err != nil {
		redirectHome(c, beginNotice(err))
		return
	}

	go h.run(ctx, s, ticket)
	redirectHome(c, "")
}

func (h *Handler) run(ctx context.Context, s *session.Session, ticket session.Ticket) {
	ctx, cancel := context.WithTimeout(ctx, h.Timeout)
	defer cancel()

	result, err := h.Analyzer.Analyze(ctx, ticket.Image)
	if !s.Complete(ticket, result, err) {
		h.Log.Info("discarded stale analysis", zap.String("session", s.ID), zap.Uint64("seq", ticket.Seq))
	}
}

// Reset clears the session's photo and result.
func (h *Handler) Reset(c *gin.Context) {
	h.sessionFor(c).Reset()
	redirectHome(c, "")
}

// GetSession returns the caller's session as JSON.
func (h *Handler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessionFor(c).Snapshot())
}

// AnalyzeUpload handles a one-shot upload and returns the analysis as JSON
// without touching any session.
func (h *Handler) AnalyzeUpload(c *gin.Context) {
	img, err := h.readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Create a context with a timeout for the external call
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.Timeout)
	defer cancel()

	result, err := h.Analyzer.Analyze(ctx, img)
	if err != nil {
		var ae *analysis.Error
		if !errors.As(err, &ae) {
			ae = &analysis.Error{Kind: analysis.KindService, Err: err}
		}
		c.JSON(statusFor(ae.Kind), gin.H{"error": ae.UserMessage()})
		return
	}
	if result.Failed() {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": h.Sessions.Len()})
}

func (h *Handler) readUpload(c *gin.Context) (*imagedata.Image, error) {
	if c.Request.ContentLength > h.MaxUploadBytes+multipartOverhead {
		return nil, imagedata.ErrTooLarge
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes+multipartOverhead)

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, imagedata.ErrTooLarge
		}
		return nil, fmt.Errorf("get form err: %w", err)
	}
	if err := imagedata.CheckExtension(file.Filename); err != nil {
		return nil, err
	}
	if file.Size > h.MaxUploadBytes {
		return nil, imagedata.ErrTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open file err: %w", err)
	}
	defer src.Close()

	return imagedata.Read(src, h.MaxUploadBytes)
}

func statusFor(kind analysis.Kind) int {
	switch kind {
	case analysis.KindConfig:
		return http.StatusServiceUnavailable
	case analysis.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func beginNotice(err error) string {
	switch {
	case errors.Is(err, session.ErrNoImage):
		return "Please upload a photo first."
	case errors.Is(err, session.ErrAnalysisInFlight):
		return "An analysis is already running for this photo."
	default:
		return session.GenericErrorMessage
	}
}

func redirectHome(c *gin.Context, notice string) {
	target := "/"
	if notice != "" {
		target += "?notice=" + url.QueryEscape(notice)
	}
	c.Redirect(http.StatusSeeOther, target)
}
