package domain

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrVideoNotFound        = errors.New("video not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInvalidFileType      = errors.New("file_type must be either 'video' or 'thumbnail'")
	ErrMissingUploadFields  = errors.New("filename and contentType are required")
	ErrMalformedUpload      = errors.New("filename or contentType is malformed")
	ErrStorageNotConfigured = errors.New("object storage is not configured")
	ErrPresignFailed        = errors.New("presign failed")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when input fails field-level checks.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return "validation failed: " + e.Fields[0].Field + " " + e.Fields[0].Message
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns e when it holds at least one field error.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
