package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// Extraction is the raw result of one LLM call, before the status
// string is mapped to the spreadsheet enum.
type Extraction struct {
	Company   string `json:"company_name"`
	Role      string `json:"role"`
	RawStatus string `json:"status"`
}

const extractionPrompt = `You are a data extraction assistant. Extract job application information from the following email content.

Extract these fields:
1. company_name: The name of the company/employer (e.g., "Google", "Microsoft", "Acme Corp")
2. role: The job title or position (e.g., "Software Engineer", "Data Scientist")
3. status: The application status. Must be one of:
   - "submitted" - Application was received/confirmed
   - "rejected" - Application was declined
   - "interview" - Interview invitation or scheduling
   - "oa_invite" - Online assessment or coding challenge invitation
   - "n/a" - Cannot determine status

EMAIL CONTENT:
%s

Respond with ONLY valid JSON in this exact format:
{"company_name": "...", "role": "...", "status": "..."}

If you cannot determine a field, use "Unknown" for company_name/role or "n/a" for status.`

const systemPrompt = "You are a data extraction assistant. Always respond with valid JSON only."

// Extractor extracts job application fields from email content using a
// locally hosted Ollama model.
type Extractor struct {
	client *api.Client
	model  string
	host   string
	logger *slog.Logger
}

// New creates an Extractor talking to the Ollama server at host. An
// empty host falls back to OLLAMA_HOST / the Ollama default.
func New(host, model string, logger *slog.Logger) (*Extractor, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var client *api.Client
	if host == "" {
		c, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("create Ollama client: %w", err)
		}
		client = c
	} else {
		base, err := url.Parse(host)
		if err != nil {
			return nil, fmt.Errorf("parse Ollama host %q: %w", host, err)
		}
		client = api.NewClient(base, &http.Client{Timeout: 2 * time.Minute})
	}

	return &Extractor{client: client, model: model, host: host, logger: logger}, nil
}

// Model returns the configured model name.
func (e *Extractor) Model() string {
	return e.model
}

// Verify checks that the Ollama server is reachable and the configured
// model is present.
func (e *Extractor) Verify(ctx context.Context) error {
	if err := e.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("Ollama server unreachable at %s (is `ollama serve` running?): %w", e.host, err)
	}

	list, err := e.client.List(ctx)
	if err != nil {
		return fmt.Errorf("list Ollama models: %w", err)
	}
	for _, m := range list.Models {
		if m.Name == e.model || m.Model == e.model ||
			baseName(m.Name) == baseName(e.model) || baseName(m.Model) == baseName(e.model) {
			return nil
		}
	}
	return fmt.Errorf("model %q not found in Ollama (run: ollama pull %s)", e.model, e.model)
}

// Extract runs one extraction call for the given email content.
// Malformed JSON in the response is not an error: the zero-value
// defaults are returned so one confused model output does not abort a
// run.
func (e *Extractor) Extract(ctx context.Context, content string) (Extraction, error) {
	stream := false
	req := &api.ChatRequest{
		Model: e.model,
		Messages: []api.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(extractionPrompt, content)},
		},
		Format: json.RawMessage(`"json"`),
		Stream: &stream,
	}

	var sb strings.Builder
	err := e.client.Chat(ctx, req, func(res api.ChatResponse) error {
		sb.WriteString(res.Message.Content)
		return nil
	})
	if err != nil {
		return Extraction{}, fmt.Errorf("Ollama chat: %w", err)
	}

	return parseResponse(sb.String(), e.logger), nil
}

// parseResponse unmarshals the model output, stripping markdown code
// fences the model sometimes adds despite the JSON format hint.
func parseResponse(text string, logger *slog.Logger) Extraction {
	text = stripCodeFence(text)

	ext := Extraction{Company: "Unknown", Role: "Unknown", RawStatus: "n/a"}

	var raw Extraction
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		logger.Warn("failed to parse LLM response as JSON", "error", err.Error())
		return ext
	}
	if raw.Company != "" {
		ext.Company = raw.Company
	}
	if raw.Role != "" {
		ext.Role = raw.Role
	}
	if raw.RawStatus != "" {
		ext.RawStatus = raw.RawStatus
	}
	return ext
}

func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func baseName(model string) string {
	name, _, _ := strings.Cut(model, ":")
	return name
}
