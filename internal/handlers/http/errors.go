package http

import (
	stderrors "errors"

	"vidshare/internal/core/domain"
	"vidshare/pkg/errors"

	"github.com/gin-gonic/gin"
)

// toAppError maps service errors onto client-facing responses.
func toAppError(err error) *errors.AppError {
	if appErr := errors.GetAppError(err); appErr != nil {
		return appErr
	}

	var verr *domain.ValidationError
	switch {
	case stderrors.As(err, &verr):
		fields := make([]errors.FieldError, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			fields = append(fields, errors.FieldError{Field: f.Field, Message: f.Message})
		}
		return errors.NewValidationError("Validation failed", fields...)
	case stderrors.Is(err, domain.ErrInvalidCredentials):
		return errors.NewUnauthorizedError("Invalid credentials")
	case stderrors.Is(err, domain.ErrUnauthorized):
		return errors.NewUnauthorizedError("Unauthorized")
	case stderrors.Is(err, domain.ErrVideoNotFound):
		return errors.NewNotFoundError("Video")
	case stderrors.Is(err, domain.ErrInvalidFileType):
		return errors.NewValidationError(domain.ErrInvalidFileType.Error())
	case stderrors.Is(err, domain.ErrMissingUploadFields),
		stderrors.Is(err, domain.ErrMalformedUpload):
		return errors.NewInvalidInputError(err.Error())
	case stderrors.Is(err, domain.ErrStorageNotConfigured):
		return errors.NewConfigurationError(err)
	case stderrors.Is(err, domain.ErrPresignFailed):
		return errors.NewUpstreamError(err)
	default:
		return errors.NewInternalError("Internal server error").WithCause(err)
	}
}

// abortWithError hands err to ErrorHandlerMiddleware.
func abortWithError(c *gin.Context, err error) {
	_ = c.Error(toAppError(err))
	c.Abort()
}
