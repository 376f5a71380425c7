package http

import (
	"context"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/swytch/backend/internal/domain"
)

// Version is reported by the health endpoints
const Version = "1.0.0"

// multipartOverhead is allowed on top of the upload limit for form boundaries and headers
const multipartOverhead = 512 * 1024

// ImageAnalyzer runs the analysis pipeline for one uploaded image
type ImageAnalyzer interface {
	AnalyzeImage(ctx context.Context, req domain.AnalyzeRequest) (*domain.AnalyzeImageResponse, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	analyzer       ImageAnalyzer
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewHandler creates a new HTTP handler. analyzer may be nil, in which case
// analysis endpoints return 503.
func NewHandler(analyzer ImageAnalyzer, maxUploadBytes int64, logger *zap.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 * 1024 * 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		analyzer:       analyzer,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.Named("http"),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "swytch-eco-backend",
		"version": Version,
	})
}

// AnalyzeImage handles POST /api/v1/analyze/image with a multipart "image" field
func (h *Handler) AnalyzeImage(c *gin.Context) {
	if h.analyzer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Analysis service not configured",
		})
		return
	}

	if c.Request.Body != nil {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(c, domain.ErrImageTooLarge)
			return
		}
		h.logger.Debug("missing image field", zap.Error(err), zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Missing file field 'image'",
		})
		return
	}

	if fileHeader.Size > h.maxUploadBytes {
		h.writeError(c, domain.ErrImageTooLarge)
		return
	}
	if fileHeader.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Empty file",
		})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("failed to open upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to read upload",
		})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		h.logger.Error("failed to read upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to read upload",
		})
		return
	}
	if int64(len(data)) > h.maxUploadBytes {
		h.writeError(c, domain.ErrImageTooLarge)
		return
	}

	mimeType := contentType(fileHeader.Header.Get("Content-Type"), data)
	if !strings.HasPrefix(mimeType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid file type. Please upload an image.",
		})
		return
	}

	resp, err := h.analyzer.AnalyzeImage(c.Request.Context(), domain.AnalyzeRequest{
		Image:    data,
		MimeType: mimeType,
		Filename: fileHeader.Filename,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// contentType returns the media type declared by the part header. Missing
// and generic declarations are replaced by sniffing the bytes.
func contentType(declared string, data []byte) string {
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil {
			declared = mt
		}
		declared = strings.ToLower(strings.TrimSpace(declared))
	}
	if declared == "" || declared == "application/octet-stream" {
		declared, _, _ = mime.ParseMediaType(http.DetectContentType(data))
	}
	return declared
}

// writeError maps domain errors to HTTP status codes
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidImage):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type. Please upload an image."})
	case errors.Is(err, domain.ErrImageTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
	case errors.Is(err, domain.ErrMissingWeight):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrEmissionFactorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrMissingActivityID):
		h.logger.Error("emission factor without activity id", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrClimatiqAPIFailure), errors.Is(err, domain.ErrClimatiqNotConfigured):
		h.logger.Warn("climatiq failure", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded, try again later"})
	default:
		h.logger.Error("analysis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
