package llm

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIError is an HTTP level failure reported by the provider.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("openai api error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func parseAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var payload struct {
		Error *ErrorBody `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return apiErr
	}
	if payload.Error != nil {
		apiErr.Message = payload.Error.Message
	}
	return apiErr
}
