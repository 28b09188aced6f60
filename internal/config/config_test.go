package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"SPREADSHEET_ID", "SHEET_NAME", "OLLAMA_MODEL", "OLLAMA_HOST",
		"GMAIL_REQUESTS_PER_SECOND", "SHEETS_WRITES_PER_MINUTE",
		"SHEETS_BATCH_SIZE", "STATE_FILE_PATH", "CREDENTIALS_PATH", "TOKEN_PATH",
	} {
		t.Setenv(key, "")
	}

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "", s.SpreadsheetID)
	assert.Equal(t, "Sheet1", s.SheetName)
	assert.Equal(t, "qwen2.5:3b", s.OllamaModel)
	assert.Equal(t, "http://localhost:11434", s.OllamaHost)
	assert.Equal(t, 40, s.GmailRequestsPerSecond)
	assert.Equal(t, 50, s.SheetsWritesPerMinute)
	assert.Equal(t, 50, s.SheetsBatchSize)
	assert.Equal(t, "processing_state.json", s.StatePath)
	assert.Equal(t, "credentials.json", s.CredentialsPath)
	assert.Equal(t, "token.json", s.TokenPath)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SPREADSHEET_ID", "abc123")
	t.Setenv("SHEET_NAME", "Applications")
	t.Setenv("OLLAMA_MODEL", "llama3.2:1b")
	t.Setenv("GMAIL_REQUESTS_PER_SECOND", "10")
	t.Setenv("SHEETS_BATCH_SIZE", "25")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "abc123", s.SpreadsheetID)
	assert.Equal(t, "Applications", s.SheetName)
	assert.Equal(t, "llama3.2:1b", s.OllamaModel)
	assert.Equal(t, 10, s.GmailRequestsPerSecond)
	assert.Equal(t, 25, s.SheetsBatchSize)
}

func TestLoadInvalidInteger(t *testing.T) {
	t.Setenv("SHEETS_BATCH_SIZE", "not-a-number")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHEETS_BATCH_SIZE")
}

func TestApplyOverrides(t *testing.T) {
	tests := []struct {
		name          string
		spreadsheetID string
		sheetName     string
		model         string
		want          Settings
	}{
		{
			name:          "all overrides set",
			spreadsheetID: "new-id",
			sheetName:     "Tab2",
			model:         "mistral",
			want:          Settings{SpreadsheetID: "new-id", SheetName: "Tab2", OllamaModel: "mistral"},
		},
		{
			name: "empty overrides keep existing values",
			want: Settings{SpreadsheetID: "old-id", SheetName: "Sheet1", OllamaModel: "qwen2.5:3b"},
		},
		{
			name:  "partial override",
			model: "phi3",
			want:  Settings{SpreadsheetID: "old-id", SheetName: "Sheet1", OllamaModel: "phi3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Settings{SpreadsheetID: "old-id", SheetName: "Sheet1", OllamaModel: "qwen2.5:3b"}
			s.ApplyOverrides(tt.spreadsheetID, tt.sheetName, tt.model)
			assert.Equal(t, tt.want.SpreadsheetID, s.SpreadsheetID)
			assert.Equal(t, tt.want.SheetName, s.SheetName)
			assert.Equal(t, tt.want.OllamaModel, s.OllamaModel)
		})
	}
}
