// Package logging provides structured logging utilities for the
// lazy-email-to-spreadsheet CLI.
//
// This package centralizes logging patterns to ensure consistent,
// structured logging throughout the codebase using the standard
// library's slog package.
//
// Sender addresses are hashed before logging so log files can be
// shared without exposing PII.
package logging
