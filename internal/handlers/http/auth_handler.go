package http

import (
	stderrors "errors"
	"net/http"
	"strings"

	"vidshare/internal/core/domain"
	"vidshare/internal/core/ports"
	"vidshare/internal/infrastructure/middleware"
	"vidshare/internal/infrastructure/monitoring"
	"vidshare/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService ports.AuthService
	cookie      *middleware.SessionCookie
	metrics     *monitoring.PrometheusCollector
	logger      *zap.SugaredLogger
}

func NewAuthHandler(
	authService ports.AuthService,
	cookie *middleware.SessionCookie,
	metrics *monitoring.PrometheusCollector,
	logger *zap.SugaredLogger,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
		metrics:     metrics,
		logger:      logger,
	}
}

func (h *AuthHandler) SetupRoutes(api *gin.RouterGroup) {
	auth := api.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
		auth.GET("/me", middleware.RequireUser(), h.Me)
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"max=254"`
	Password string `json:"password" binding:"max=1024"`
}

// userResponse is the public view of a signed-in user.
type userResponse struct {
	ID    domain.UserID   `json:"id"`
	Email string          `json:"email"`
	Role  domain.UserRole `json:"role"`
}

func newUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Role: u.Role}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(errors.NewInvalidInputError("Invalid request body"))
		return
	}

	user, err := h.authService.Authenticate(c.Request.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		if stderrors.Is(err, domain.ErrInvalidCredentials) {
			h.metrics.RecordLogin(monitoring.OutcomeRejected)
		} else {
			h.metrics.RecordLogin(monitoring.OutcomeError)
		}
		abortWithError(c, err)
		return
	}

	if !user.IsAdmin() {
		h.metrics.RecordLogin(monitoring.OutcomeForbidden)
		_ = c.Error(errors.NewUnauthorizedError("Only administrators can login"))
		return
	}

	token, err := h.authService.IssueCredential(user.ID)
	if err != nil {
		h.metrics.RecordLogin(monitoring.OutcomeError)
		abortWithError(c, err)
		return
	}

	if err := h.cookie.Set(c.Writer, token); err != nil {
		h.metrics.RecordLogin(monitoring.OutcomeError)
		abortWithError(c, err)
		return
	}
	h.metrics.RecordLogin(monitoring.OutcomeSuccess)
	h.logger.Infow("admin signed in", "user_id", user.ID)

	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.cookie.Clear(c.Writer)
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(middleware.CurrentUser(c))})
}
