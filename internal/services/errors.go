package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransaction   = errors.New("transaction error")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Category maps an error to the failure category recorded on merge results:
// "timeout", "transaction", or "general".
func Category(err error) string {
	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrTransaction):
		return "transaction"
	default:
		return "general"
	}
}

// ClassifyStoreError tags a raw store error with the appropriate sentinel.
// SQLite surfaces transactional contention only through message text, so the
// match is on content.
func ClassifyStoreError(component, operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(ErrTimeout, component, operation, "deadline exceeded", err)
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{"transaction", "database is locked", "sqlite_busy", "constraint"} {
		if strings.Contains(msg, fragment) {
			return Wrap(ErrTransaction, component, operation, "store transaction failed", err)
		}
	}
	return Wrap(ErrTransient, component, operation, "store call failed", err)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
