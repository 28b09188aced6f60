// Package config loads runtime settings from environment variables,
// with .env file support and CLI flag overrides layered on top.
package config
