package http

import (
	"net/http"
	"strconv"

	"vidshare/internal/core/domain"
	"vidshare/internal/core/ports"
	"vidshare/internal/infrastructure/middleware"
	"vidshare/internal/infrastructure/monitoring"
	"vidshare/pkg/errors"

	"github.com/gin-gonic/gin"
)

type VideoHandler struct {
	videoService ports.VideoService
	authService  ports.AuthService
	metrics      *monitoring.PrometheusCollector
}

func NewVideoHandler(
	videoService ports.VideoService,
	authService ports.AuthService,
	metrics *monitoring.PrometheusCollector,
) *VideoHandler {
	return &VideoHandler{
		videoService: videoService,
		authService:  authService,
		metrics:      metrics,
	}
}

func (h *VideoHandler) SetupRoutes(api *gin.RouterGroup) {
	videos := api.Group("/videos")
	{
		videos.GET("", h.ListVideos)
		videos.GET("/:id", h.GetVideo)

		admin := videos.Group("", middleware.RequireAdmin(h.authService))
		admin.POST("", h.CreateVideo)
		admin.PATCH("/:id", h.UpdateVideo)
		admin.PUT("/:id", h.UpdateVideo)
		admin.DELETE("/:id", h.DeleteVideo)
	}
}

// videoRequest accepts {"video": {...}} as well as the bare object.
type videoRequest struct {
	Video *domain.VideoPatch `json:"video"`
	domain.VideoPatch
}

func (r videoRequest) patch() domain.VideoPatch {
	if r.Video != nil {
		return *r.Video
	}
	return r.VideoPatch
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func videoID(c *gin.Context) (domain.VideoID, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return domain.VideoID(id), true
}

func (h *VideoHandler) ListVideos(c *gin.Context) {
	videos, err := h.videoService.ListVideos(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, videos)
}

func (h *VideoHandler) GetVideo(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		abortWithError(c, domain.ErrVideoNotFound)
		return
	}

	video, err := h.videoService.GetVideo(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, video)
}

func (h *VideoHandler) CreateVideo(c *gin.Context) {
	var req videoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.NewInvalidInputError("Invalid request body"))
		return
	}

	p := req.patch()
	video, err := h.videoService.CreateVideo(c.Request.Context(), middleware.CurrentUser(c), domain.VideoInput{
		Title:        deref(p.Title),
		Description:  deref(p.Description),
		VideoURL:     deref(p.VideoURL),
		ThumbnailURL: deref(p.ThumbnailURL),
	})
	if err != nil {
		h.metrics.RecordVideoMutation("create", monitoring.OutcomeRejected)
		abortWithError(c, err)
		return
	}

	h.metrics.RecordVideoMutation("create", monitoring.OutcomeSuccess)
	c.JSON(http.StatusCreated, video)
}

func (h *VideoHandler) UpdateVideo(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		abortWithError(c, domain.ErrVideoNotFound)
		return
	}

	var req videoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.NewInvalidInputError("Invalid request body"))
		return
	}

	video, err := h.videoService.UpdateVideo(c.Request.Context(), middleware.CurrentUser(c), id, req.patch())
	if err != nil {
		h.metrics.RecordVideoMutation("update", monitoring.OutcomeRejected)
		abortWithError(c, err)
		return
	}

	h.metrics.RecordVideoMutation("update", monitoring.OutcomeSuccess)
	c.JSON(http.StatusOK, video)
}

func (h *VideoHandler) DeleteVideo(c *gin.Context) {
	id, ok := videoID(c)
	if !ok {
		abortWithError(c, domain.ErrVideoNotFound)
		return
	}

	if err := h.videoService.DeleteVideo(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		h.metrics.RecordVideoMutation("delete", monitoring.OutcomeRejected)
		abortWithError(c, err)
		return
	}

	h.metrics.RecordVideoMutation("delete", monitoring.OutcomeSuccess)
	c.JSON(http.StatusOK, gin.H{"message": "Video deleted successfully"})
}
