package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced by the analysis pipeline.
const (
	CodeConfigurationMissing     = "CONFIGURATION_MISSING"
	CodeDecodingFailed           = "DECODING_FAILED"
	CodeDatasetParseFailed       = "DATASET_PARSE_FAILED"
	CodeAPIError                 = "API_ERROR"
	CodeUnexpectedResponseFormat = "UNEXPECTED_RESPONSE_FORMAT"
	CodePersistenceFailed        = "PERSISTENCE_FAILED"
	CodeArtifactNotFound         = "ARTIFACT_NOT_FOUND"
	CodeInvalidArtifactType      = "INVALID_ARTIFACT_TYPE"
	CodeValidationFailed         = "VALIDATION_FAILED"
	CodeInternalError            = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

// NewConfigurationMissing signals absent or invalid runtime configuration.
func NewConfigurationMissing(message string, err error) error {
	return &DomainError{
		Code:       CodeConfigurationMissing,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewDecodingError reports that no candidate encoding could decode an upload.
func NewDecodingError(message string, details map[string]any) error {
	return NewDomainError(CodeDecodingFailed, message, http.StatusBadRequest, details)
}

// NewDatasetParseError reports a ticket payload that is not valid JSON.
func NewDatasetParseError(err error) error {
	return &DomainError{
		Code:       CodeDatasetParseFailed,
		Message:    fmt.Sprintf("invalid JSON file: %v", err),
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

// NewAPIError collapses transport, timeout, non-2xx and response-parse
// failures from the completion endpoint under a single code, keeping the
// underlying cause as detail.
func NewAPIError(message string, err error) error {
	return &DomainError{
		Code:       CodeAPIError,
		Message:    message,
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewUnexpectedResponseFormat reports a well-formed completion response that
// lacks the expected content path.
func NewUnexpectedResponseFormat(message string) error {
	return NewDomainError(CodeUnexpectedResponseFormat, message, http.StatusBadGateway, nil)
}

// NewPersistenceError reports an artifact write failure.
func NewPersistenceError(message string, err error) error {
	return &DomainError{
		Code:       CodePersistenceFailed,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewArtifactNotFound reports a retrieval miss for a persisted artifact.
func NewArtifactNotFound(handle string) error {
	return NewDomainError(CodeArtifactNotFound, "artifact not found", http.StatusNotFound,
		map[string]any{"handle": handle})
}

// NewInvalidArtifactType rejects a retrieval handle with the wrong extension.
func NewInvalidArtifactType(handle, wantExt string) error {
	return NewDomainError(CodeInvalidArtifactType, "invalid artifact type", http.StatusBadRequest,
		map[string]any{"handle": handle, "expected_extension": wantExt})
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries the given domain error code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
