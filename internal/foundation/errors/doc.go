// Package errors provides foundational, type-safe error primitives used across kapi.
//
// This package contains classified error types and helpers for fail-fast error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, hook, transform, filesystem, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLI adapter for exit codes and error presentation
//
// kapi never retries: every classified error aborts the enclosing build run.
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryTransform, "invalid JSON artifact").
//		WithContext("path", "apidoc.json").
//		WithCause(parseErr).
//		Build()
package errors
