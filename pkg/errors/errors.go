package errors

import "fmt"

// Error codes
const (
	CodeAppError      = "APP_ERROR"
	CodeAPIError      = "API_ERROR"
	CodeValidation    = "VALIDATION_ERROR"
	CodeCache         = "CACHE_ERROR"
	CodeService       = "SERVICE_ERROR"
	CodeTokenRotation = "TOKEN_ROTATION_ERROR"
	CodeConfig        = "CONFIG_ERROR"
	CodeNotFound      = "NOT_FOUND"
)

type AppError struct {
	Message    string
	Code       string
	StatusCode int
	Context    map[string]any
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewAppError(message, code string, statusCode int, context map[string]any) *AppError {
	return &AppError{
		Message:    message,
		Code:       code,
		StatusCode: statusCode,
		Context:    context,
	}
}

func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

type APIError struct {
	*AppError
}

func NewAPIError(message string, statusCode int, context map[string]any) *APIError {
	return &APIError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeAPIError,
			StatusCode: statusCode,
			Context:    context,
		},
	}
}

type ValidationError struct {
	*AppError
	Field string
	Value any
}

func NewValidationError(message, field string, value any) *ValidationError {
	return &ValidationError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeValidation,
			StatusCode: 400,
			Context: map[string]any{
				"field": field,
				"value": value,
			},
		},
		Field: field,
		Value: value,
	}
}

type NotFoundError struct {
	*AppError
	Resource string
	Key      string
}

func NewNotFoundError(resource, key string) *NotFoundError {
	return &NotFoundError{
		AppError: &AppError{
			Message:    fmt.Sprintf("%s %q not found", resource, key),
			Code:       CodeNotFound,
			StatusCode: 404,
			Context: map[string]any{
				"resource": resource,
				"key":      key,
			},
		},
		Resource: resource,
		Key:      key,
	}
}

type CacheError struct {
	*AppError
	Operation string
	Key       string
}

func NewCacheError(message, operation, key string, cause error) *CacheError {
	return &CacheError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeCache,
			StatusCode: 500,
			Context: map[string]any{
				"operation": operation,
				"key":       key,
			},
			Cause: cause,
		},
		Operation: operation,
		Key:       key,
	}
}

type ServiceError struct {
	*AppError
	Service   string
	Operation string
}

func NewServiceError(message, service, operation string, cause error) *ServiceError {
	return &ServiceError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeService,
			StatusCode: 500,
			Context: map[string]any{
				"service":   service,
				"operation": operation,
			},
			Cause: cause,
		},
		Service:   service,
		Operation: operation,
	}
}

// TokenRotationError is returned when every configured CMS token was rate limited.
type TokenRotationError struct {
	*APIError
}

func NewTokenRotationError(message string, statusCode int, context map[string]any) *TokenRotationError {
	return &TokenRotationError{
		APIError: &APIError{
			AppError: &AppError{
				Message:    message,
				Code:       CodeTokenRotation,
				StatusCode: statusCode,
				Context:    context,
			},
		},
	}
}

// ConfigError marks a startup-time configuration defect (env or identifier tables).
type ConfigError struct {
	*AppError
	Source string
}

func NewConfigError(message, source string, cause error) *ConfigError {
	return &ConfigError{
		AppError: &AppError{
			Message:    message,
			Code:       CodeConfig,
			StatusCode: 500,
			Context: map[string]any{
				"source": source,
			},
			Cause: cause,
		},
		Source: source,
	}
}

// AsAppError returns the AppError carried by err's chain, if any.
func AsAppError(err error) (*AppError, bool) {
	for err != nil {
		switch e := err.(type) {
		case *AppError:
			return e, true
		case *APIError:
			return e.AppError, true
		case *ValidationError:
			return e.AppError, true
		case *NotFoundError:
			return e.AppError, true
		case *CacheError:
			return e.AppError, true
		case *ServiceError:
			return e.AppError, true
		case *TokenRotationError:
			return e.AppError, true
		case *ConfigError:
			return e.AppError, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// StatusCodeOf extracts the HTTP status carried by an AppError chain, or 500.
func StatusCodeOf(err error) int {
	if ae, ok := AsAppError(err); ok && ae.StatusCode > 0 {
		return ae.StatusCode
	}
	return 500
}

// CodeOf extracts the error code carried by an AppError chain, or CodeAppError.
func CodeOf(err error) string {
	if ae, ok := AsAppError(err); ok && ae.Code != "" {
		return ae.Code
	}
	return CodeAppError
}
