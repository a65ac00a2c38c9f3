package middleware

import (
	"net/http"

	"vidshare/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const internalErrorMessage = "Internal server error"

// ErrorHandlerMiddleware renders the last error pushed with c.Error as
// {"error": message}, adding "errors" for field-level failures.
func ErrorHandlerMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		appErr := errors.GetAppError(err)
		if appErr == nil {
			logger.Errorw("unhandled error",
				"error", err.Error(),
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": internalErrorMessage})
			return
		}

		fields := []interface{}{
			"code", appErr.Code,
			"status", appErr.HTTPStatus,
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		}
		if appErr.Cause != nil {
			fields = append(fields, "cause", appErr.Cause.Error())
		}
		if len(appErr.Context) > 0 {
			fields = append(fields, "context", appErr.Context)
		}
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			logger.Errorw(appErr.Message, fields...)
		} else {
			logger.Debugw(appErr.Message, fields...)
		}

		body := gin.H{"error": appErr.Message}
		if len(appErr.Fields) > 0 {
			body["errors"] = appErr.Fields
		}
		c.JSON(appErr.HTTPStatus, body)
	}
}

// RecoveryMiddleware recovers from panics and returns proper error responses
func RecoveryMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Errorw("panic recovered",
					"error", err,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": internalErrorMessage})
			}
		}()

		c.Next()
	}
}
