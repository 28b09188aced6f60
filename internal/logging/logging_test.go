package logging

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnonymizeEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{name: "regular address", email: "recruiter@example.com"},
		{name: "address with plus tag", email: "me+jobs@gmail.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnonymizeEmail(tt.email)
			assert.NotEqual(t, tt.email, got)
			assert.Contains(t, got, "user:")
			// Stable across calls so log entries can be correlated.
			assert.Equal(t, got, AnonymizeEmail(tt.email))
		})
	}
}

func TestAnonymizeEmailEmpty(t *testing.T) {
	assert.Equal(t, "", AnonymizeEmail(""))
}

func TestErrNil(t *testing.T) {
	attr := Err(nil)
	// An empty group is omitted from output entirely.
	assert.Equal(t, slog.KindGroup, attr.Value.Kind())
	assert.Empty(t, attr.Key)
}

func TestErrNonNil(t *testing.T) {
	attr := Err(assert.AnError)
	assert.Equal(t, KeyError, attr.Key)
	assert.Equal(t, assert.AnError.Error(), attr.Value.String())
}

func TestStatusValues(t *testing.T) {
	assert.Equal(t, "success", StatusSuccess)
	assert.Equal(t, "error", StatusError)
	assert.Equal(t, "skipped", StatusSkipped)
}
