package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestAsAppErrorUnwrapsTypedErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"app", NewAppError("busy", "BUSY", 503, nil), 503, "BUSY"},
		{"validation", NewValidationError("bad day", "day", "Sunday"), 400, CodeValidation},
		{"not found", NewNotFoundError("day", "Sunday"), 404, CodeNotFound},
		{"cache", NewCacheError("get failed", "get", "k", nil), 500, CodeCache},
		{"service", NewServiceError("down", "cms", "fetch", nil), 500, CodeService},
		{"api", NewAPIError("bad gateway", 502, nil), 502, CodeAPIError},
		{"token rotation", NewTokenRotationError("exhausted", 429, nil), 429, CodeTokenRotation},
		{"config", NewConfigError("broken", "env", nil), 500, CodeConfig},
		{"wrapped", fmt.Errorf("refresh: %w", NewNotFoundError("day", "x")), 404, CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := AsAppError(tt.err); !ok {
				t.Fatalf("expected AppError in chain")
			}
			if got := StatusCodeOf(tt.err); got != tt.status {
				t.Fatalf("StatusCodeOf = %d, want %d", got, tt.status)
			}
			if got := CodeOf(tt.err); got != tt.code {
				t.Fatalf("CodeOf = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestPlainErrorsDefault(t *testing.T) {
	err := stderrors.New("boom")
	if _, ok := AsAppError(err); ok {
		t.Fatalf("plain error should not match")
	}
	if StatusCodeOf(err) != 500 || CodeOf(err) != CodeAppError {
		t.Fatalf("unexpected defaults: %d %s", StatusCodeOf(err), CodeOf(err))
	}
	if _, ok := AsAppError(nil); ok {
		t.Fatalf("nil should not match")
	}
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := stderrors.New("dial tcp")
	err := NewServiceError("cms unavailable", "cms", "fetch", cause)
	if err.Error() != "cms unavailable: dial tcp" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
	if !stderrors.Is(err, cause) {
		t.Fatalf("cause should be reachable with errors.Is")
	}
}
