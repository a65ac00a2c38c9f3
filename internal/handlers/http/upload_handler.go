package http

import (
	"net/http"

	"vidshare/internal/core/domain"
	"vidshare/internal/core/ports"
	"vidshare/internal/infrastructure/middleware"
	"vidshare/internal/infrastructure/monitoring"
	"vidshare/pkg/errors"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	uploadService ports.UploadService
	authService   ports.AuthService
	metrics       *monitoring.PrometheusCollector
}

func NewUploadHandler(
	uploadService ports.UploadService,
	authService ports.AuthService,
	metrics *monitoring.PrometheusCollector,
) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		authService:   authService,
		metrics:       metrics,
	}
}

func (h *UploadHandler) SetupRoutes(api *gin.RouterGroup) {
	api.POST("/uploads/presign", middleware.RequireAdmin(h.authService), h.Presign)
}

type uploadFields struct {
	Filename         string `json:"filename"`
	ContentType      string `json:"contentType"`
	FileType         string `json:"fileType"`
	ContentTypeSnake string `json:"content_type"`
	FileTypeSnake    string `json:"file_type"`
}

func (f uploadFields) request() domain.UploadRequest {
	req := domain.UploadRequest{
		Filename:    f.Filename,
		ContentType: f.ContentType,
		FileType:    domain.FileType(f.FileType),
	}
	if req.ContentType == "" {
		req.ContentType = f.ContentTypeSnake
	}
	if req.FileType == "" {
		req.FileType = domain.FileType(f.FileTypeSnake)
	}
	return req
}

// presignRequest accepts {"upload": {...}} as well as the bare object.
type presignRequest struct {
	Upload *uploadFields `json:"upload"`
	uploadFields
}

type presignResponse struct {
	UploadURL   string `json:"upload_url"`
	FileURL     string `json:"file_url"`
	Key         string `json:"key"`
	ContentType string `json:"content_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (h *UploadHandler) Presign(c *gin.Context) {
	var body presignRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		_ = c.Error(errors.NewInvalidInputError("Invalid request body"))
		return
	}

	fields := body.uploadFields
	if body.Upload != nil {
		fields = *body.Upload
	}
	req := fields.request()

	grant, err := h.uploadService.CreateUploadGrant(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		appErr := toAppError(err)
		outcome := monitoring.OutcomeRejected
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			outcome = monitoring.OutcomeError
		}
		h.metrics.RecordUploadGrant(string(req.FileType), outcome)
		_ = c.Error(appErr)
		return
	}

	h.metrics.RecordUploadGrant(string(req.FileType), monitoring.OutcomeSuccess)
	c.JSON(http.StatusOK, presignResponse{
		UploadURL:   grant.UploadURL,
		FileURL:     grant.FileURL,
		Key:         grant.Key,
		ContentType: grant.ContentType,
		ExpiresIn:   int(grant.ExpiresIn.Seconds()),
	})
}
