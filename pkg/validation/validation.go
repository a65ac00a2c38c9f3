package validation

import (
	"fmt"
	"mime"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// bcrypt ignores everything past 72 bytes.
	maxPasswordBytes = 72
	minPasswordLen   = 6

	// S3 object keys top out at 1024 bytes; the generated prefix takes ~50.
	maxFilenameBytes = 255
)

var (
	// EmailRegex validates email format
	EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// ValidateEmail validates email address
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > 254 {
		return fmt.Errorf("email is too long (max 254 characters)")
	}
	if !EmailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidatePassword validates a password before it is hashed
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("password is too long (max %d bytes)", maxPasswordBytes)
	}
	return nil
}

// ValidateURL validates an absolute http(s) URL
func ValidateURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("URL is required")
	}
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme (must be http or https)")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

// ValidateFilename checks the final path element of an upload
func ValidateFilename(name string) error {
	if name == "" {
		return fmt.Errorf("filename is required")
	}
	if len(name) > maxFilenameBytes {
		return fmt.Errorf("filename is too long (max %d bytes)", maxFilenameBytes)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("filename is not valid UTF-8")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("filename contains control characters")
		}
	}
	return nil
}

// ValidateContentType accepts a single "type/subtype" media type with
// optional parameters.
func ValidateContentType(contentType string) error {
	if contentType == "" {
		return fmt.Errorf("content type is required")
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("invalid content type: %w", err)
	}
	if major, minor, ok := strings.Cut(mediaType, "/"); !ok || major == "" || minor == "" {
		return fmt.Errorf("content type must be type/subtype")
	}
	return nil
}

// ValidateNonEmptyString validates that string is not empty after trimming
func ValidateNonEmptyString(s, fieldName string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}
