package llm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer fakes the Ollama HTTP API: heartbeat, model listing,
// and a chat endpoint returning a canned extraction.
func newTestServer(t *testing.T, chatContent string, models []string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/api/tags", func(w http.ResponseWriter, r *http.Request) {
		type model struct {
			Name  string `json:"name"`
			Model string `json:"model"`
		}
		resp := struct {
			Models []model `json:"models"`
		}{}
		for _, m := range models {
			resp.Models = append(resp.Models, model{Name: m, Model: m})
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		resp := map[string]any{
			"model":   req.Model,
			"message": map[string]any{"role": "assistant", "content": chatContent},
			"done":    true,
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestExtract(t *testing.T) {
	srv := newTestServer(t, `{"company_name": "Acme", "role": "Software Engineer", "status": "interview"}`, nil)

	e, err := New(srv.URL, "qwen2.5:3b", nil)
	require.NoError(t, err)

	ext, err := e.Extract(context.Background(), "Interview invitation from Acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", ext.Company)
	assert.Equal(t, "Software Engineer", ext.Role)
	assert.Equal(t, "interview", ext.RawStatus)
}

func TestExtractMalformedResponseFallsBackToDefaults(t *testing.T) {
	srv := newTestServer(t, `sorry, I cannot help with that`, nil)

	e, err := New(srv.URL, "qwen2.5:3b", nil)
	require.NoError(t, err)

	ext, err := e.Extract(context.Background(), "some email")
	require.NoError(t, err)
	assert.Equal(t, "Unknown", ext.Company)
	assert.Equal(t, "Unknown", ext.Role)
	assert.Equal(t, "n/a", ext.RawStatus)
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		models  []string
		model   string
		wantErr string
	}{
		{name: "exact match", models: []string{"qwen2.5:3b"}, model: "qwen2.5:3b"},
		{name: "tag-insensitive match", models: []string{"qwen2.5:latest"}, model: "qwen2.5:3b"},
		{name: "missing model", models: []string{"llama3.2:1b"}, model: "qwen2.5:3b", wantErr: "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, "{}", tt.models)

			e, err := New(srv.URL, tt.model, nil)
			require.NoError(t, err)

			err = e.Verify(context.Background())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Extraction
	}{
		{
			name: "clean json",
			in:   `{"company_name": "Acme", "role": "SWE", "status": "submitted"}`,
			want: Extraction{Company: "Acme", Role: "SWE", RawStatus: "submitted"},
		},
		{
			name: "json code fence",
			in:   "```json\n{\"company_name\": \"Acme\", \"role\": \"SWE\", \"status\": \"rejected\"}\n```",
			want: Extraction{Company: "Acme", Role: "SWE", RawStatus: "rejected"},
		},
		{
			name: "bare code fence",
			in:   "```\n{\"company_name\": \"Acme\", \"role\": \"SWE\", \"status\": \"n/a\"}\n```",
			want: Extraction{Company: "Acme", Role: "SWE", RawStatus: "n/a"},
		},
		{
			name: "missing fields get defaults",
			in:   `{"company_name": "Acme"}`,
			want: Extraction{Company: "Acme", Role: "Unknown", RawStatus: "n/a"},
		},
		{
			name: "invalid json gets defaults",
			in:   `not json at all`,
			want: Extraction{Company: "Unknown", Role: "Unknown", RawStatus: "n/a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseResponse(tt.in, discardLogger())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "qwen2.5", baseName("qwen2.5:3b"))
	assert.Equal(t, "llama3", baseName("llama3"))
}
