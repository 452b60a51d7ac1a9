package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want Config
	}{
		{
			name: "defaults",
			env:  map[string]string{},
			want: Config{
				OpenAIBaseURL:  DefaultOpenAIBaseURL,
				RequestTimeout: DefaultRequestTimeout,
				HistoryLimit:   DefaultHistoryLimit,
			},
		},
		{
			name: "overrides",
			env: map[string]string{
				"OPENAI_API_KEY":                    "  sk-test ",
				"OPENAI_BASE_URL":                   "http://localhost:9000/v1/",
				"ASSISTANT_REQUEST_TIMEOUT_SECONDS": "10",
				"ASSISTANT_HISTORY_LIMIT":           "8",
			},
			want: Config{
				OpenAIAPIKey:   "sk-test",
				OpenAIBaseURL:  "http://localhost:9000/v1",
				RequestTimeout: 10 * time.Second,
				HistoryLimit:   8,
			},
		},
		{
			name: "invalid numbers fall back",
			env: map[string]string{
				"ASSISTANT_REQUEST_TIMEOUT_SECONDS": "soon",
				"ASSISTANT_HISTORY_LIMIT":           "-3",
			},
			want: Config{
				OpenAIBaseURL:  DefaultOpenAIBaseURL,
				RequestTimeout: DefaultRequestTimeout,
				HistoryLimit:   DefaultHistoryLimit,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"OPENAI_API_KEY", "OPENAI_BASE_URL", "ASSISTANT_REQUEST_TIMEOUT_SECONDS", "ASSISTANT_HISTORY_LIMIT"} {
				t.Setenv(key, tt.env[key])
			}

			cfg := Load()
			assert.Equal(t, tt.want, *cfg)
			assert.Equal(t, tt.want.OpenAIAPIKey != "", cfg.AssistantEnabled())
		})
	}
}
