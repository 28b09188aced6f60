package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Default values used when the corresponding environment variable is unset.
const (
	DefaultSheetName       = "Sheet1"
	DefaultOllamaModel     = "qwen2.5:3b"
	DefaultOllamaHost      = "http://localhost:11434"
	DefaultGmailRPS        = 40
	DefaultSheetsWPM       = 50
	DefaultSheetsBatchSize = 50
	DefaultStatePath       = "processing_state.json"
	DefaultCredentialsPath = "credentials.json"
	DefaultTokenPath       = "token.json"
)

// Settings holds the application configuration loaded from environment
// variables (with .env file support) plus any CLI overrides.
type Settings struct {
	// Google Sheets
	SpreadsheetID string
	SheetName     string

	// Ollama
	OllamaModel string
	OllamaHost  string

	// Rate limiting
	GmailRequestsPerSecond int
	SheetsWritesPerMinute  int
	SheetsBatchSize        int

	// Files
	StatePath       string
	CredentialsPath string
	TokenPath       string
}

// Load reads settings from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() (Settings, error) {
	_ = godotenv.Load()

	s := Settings{
		SpreadsheetID:          os.Getenv("SPREADSHEET_ID"),
		SheetName:              envOr("SHEET_NAME", DefaultSheetName),
		OllamaModel:            envOr("OLLAMA_MODEL", DefaultOllamaModel),
		OllamaHost:             envOr("OLLAMA_HOST", DefaultOllamaHost),
		StatePath:              envOr("STATE_FILE_PATH", DefaultStatePath),
		CredentialsPath:        envOr("CREDENTIALS_PATH", DefaultCredentialsPath),
		TokenPath:              envOr("TOKEN_PATH", DefaultTokenPath),
		GmailRequestsPerSecond: DefaultGmailRPS,
		SheetsWritesPerMinute:  DefaultSheetsWPM,
		SheetsBatchSize:        DefaultSheetsBatchSize,
	}

	var err error
	if s.GmailRequestsPerSecond, err = envInt("GMAIL_REQUESTS_PER_SECOND", DefaultGmailRPS); err != nil {
		return Settings{}, err
	}
	if s.SheetsWritesPerMinute, err = envInt("SHEETS_WRITES_PER_MINUTE", DefaultSheetsWPM); err != nil {
		return Settings{}, err
	}
	if s.SheetsBatchSize, err = envInt("SHEETS_BATCH_SIZE", DefaultSheetsBatchSize); err != nil {
		return Settings{}, err
	}

	return s, nil
}

// ApplyOverrides replaces settings with non-empty CLI flag values.
func (s *Settings) ApplyOverrides(spreadsheetID, sheetName, model string) {
	if spreadsheetID != "" {
		s.SpreadsheetID = spreadsheetID
	}
	if sheetName != "" {
		s.SheetName = sheetName
	}
	if model != "" {
		s.OllamaModel = model
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q", key, v)
	}
	return n, nil
}
