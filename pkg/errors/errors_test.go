package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := NewAppError(ErrCodeInvalidInput, "test error", 400)
	expected := "INVALID_INPUT: test error"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestAppError_WithCause(t *testing.T) {
	originalErr := errors.New("original error")
	err := WrapError(originalErr, ErrCodeInternal, "wrapped error", 500)

	if err.Cause != originalErr {
		t.Errorf("Cause = %v, want %v", err.Cause, originalErr)
	}
	if !strings.Contains(err.Error(), "original error") {
		t.Errorf("Error() should contain cause, got: %v", err.Error())
	}
	if !errors.Is(err, originalErr) {
		t.Error("errors.Is should see the cause through Unwrap")
	}
}

func TestAppError_WithContext(t *testing.T) {
	err := NewAppError(ErrCodeInvalidInput, "test error", 400)
	err.WithContext("field", "value").WithContext("count", 42)

	if err.Context["field"] != "value" {
		t.Errorf("Context[field] = %v, want 'value'", err.Context["field"])
	}
	if err.Context["count"] != 42 {
		t.Errorf("Context[count] = %v, want 42", err.Context["count"])
	}
}

func TestConstructorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   ErrorCode
		status int
	}{
		{"invalid input", NewInvalidInputError("bad"), ErrCodeInvalidInput, http.StatusBadRequest},
		{"validation", NewValidationError("bad", FieldError{Field: "title", Message: "can't be blank"}), ErrCodeValidationFailed, http.StatusUnprocessableEntity},
		{"not found", NewNotFoundError("video"), ErrCodeNotFound, http.StatusNotFound},
		{"unauthorized", NewUnauthorizedError("Unauthorized"), ErrCodeUnauthorized, http.StatusUnauthorized},
		{"configuration", NewConfigurationError(errors.New("no bucket")), ErrCodeConfiguration, http.StatusInternalServerError},
		{"upstream", NewUpstreamError(errors.New("s3 down")), ErrCodeUpstream, http.StatusInternalServerError},
		{"internal", NewInternalError("boom"), ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
			if tt.err.HTTPStatus != tt.status {
				t.Errorf("HTTPStatus = %v, want %v", tt.err.HTTPStatus, tt.status)
			}
		})
	}
}

func TestNewNotFoundError_Message(t *testing.T) {
	err := NewNotFoundError("Video")
	if err.Message != "Video not found" {
		t.Errorf("Message = %q, want %q", err.Message, "Video not found")
	}
}

func TestConfigurationError_HidesCause(t *testing.T) {
	err := NewConfigurationError(errors.New("missing AWS_S3_BUCKET"))
	if strings.Contains(err.Message, "AWS_S3_BUCKET") {
		t.Errorf("client message must not leak configuration detail, got %q", err.Message)
	}
}

func TestGetAppError(t *testing.T) {
	appErr := NewAppError(ErrCodeInvalidInput, "test", 400)

	if result := GetAppError(appErr); result != appErr {
		t.Errorf("GetAppError() = %v, want %v", result, appErr)
	}

	wrapped := fmt.Errorf("handler: %w", appErr)
	if result := GetAppError(wrapped); result != appErr {
		t.Error("GetAppError() should extract AppError from a wrapped error")
	}

	if result := GetAppError(errors.New("regular error")); result != nil {
		t.Error("GetAppError() should return nil for regular error")
	}
}
