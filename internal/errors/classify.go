package errors

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// analyzes an error and returns its category and sanitized message
func classifyError(err error) errorInfo {
	if err == nil {
		return errorInfo{CategoryUnknown, ""}
	}

	isProduction := os.Getenv("ENVIRONMENT") == "production"

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return errorInfo{CategoryDatabase, ternary(isProduction, "database operation failed", err.Error())}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return errorInfo{CategoryNotFound, ternary(isProduction, "resource not found", err.Error())}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errorInfo{CategoryTimeout, ternary(isProduction, "request timed out", err.Error())}
	}

	if errors.Is(err, context.Canceled) {
		return errorInfo{CategoryTimeout, ternary(isProduction, "request canceled", err.Error())}
	}

	// fallback to string matching for unknown error types
	errMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errMsg, "timeout") || strings.Contains(errMsg, "deadline"):
		return errorInfo{CategoryTimeout, ternary(isProduction, "request timed out", err.Error())}
	case strings.Contains(errMsg, "not found") || strings.Contains(errMsg, "no rows"):
		return errorInfo{CategoryNotFound, ternary(isProduction, "resource not found", err.Error())}
	case strings.Contains(errMsg, "database") || strings.Contains(errMsg, "sql") ||
		strings.Contains(errMsg, "postgres") || strings.Contains(errMsg, "pgx"):
		return errorInfo{CategoryDatabase, ternary(isProduction, "database operation failed", err.Error())}
	case strings.Contains(errMsg, "connection") || strings.Contains(errMsg, "network") ||
		strings.Contains(errMsg, "dial"):
		return errorInfo{CategoryNetwork, ternary(isProduction, "connection error occurred", err.Error())}
	case strings.Contains(errMsg, "validation") || strings.Contains(errMsg, "binding") ||
		strings.Contains(errMsg, "invalid") || strings.Contains(errMsg, "required"):
		return errorInfo{CategoryValidation, ternary(isProduction, "validation failed", err.Error())}
	case strings.Contains(errMsg, "unauthorized") || strings.Contains(errMsg, "forbidden") ||
		strings.Contains(errMsg, "permission"):
		return errorInfo{CategoryAuth, ternary(isProduction, "permission denied", err.Error())}
	}

	return errorInfo{CategoryUnknown, ternary(isProduction, "an error occurred", err.Error())}
}

func ternary(condition bool, trueVal, falseVal string) string {
	if condition {
		return trueVal
	}

	return falseVal
}
