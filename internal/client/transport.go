package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"philosophers-service/internal/domain"
)

// Transport performs one named server call and decodes its result into out.
type Transport interface {
	Call(ctx context.Context, method string, args map[string]any, out any) error
}

// RemoteError is a call failure reported by the server.
type RemoteError struct {
	Method  string
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Method, e.Message, e.Code)
}

// Is lets callers match remote failures against the domain errors.
func (e *RemoteError) Is(target error) bool {
	switch e.Code {
	case "invalidtransition":
		return target == domain.ErrInvalidTransition
	case "alreadyfinished":
		return target == domain.ErrAlreadyFinished
	case "noquestionavailable":
		return target == domain.ErrNoQuestionAvailable
	case "notfound":
		return target == domain.ErrNotFound
	case "permissiondenied":
		return target == domain.ErrPermissionDenied
	case "invalidinput":
		return target == domain.ErrInvalidInput
	}
	return false
}

// HTTPTransport calls the batch endpoint of the service with one call per request.
type HTTPTransport struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewHTTPTransport(baseURL, token string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{
		endpoint: strings.TrimSuffix(baseURL, "/") + "/ajax",
		token:    token,
		client:   client,
	}
}

type ajaxCall struct {
	Index      int            `json:"index"`
	MethodName string         `json:"methodname"`
	Args       map[string]any `json:"args"`
}

type ajaxResult struct {
	Error     bool            `json:"error"`
	Data      json.RawMessage `json:"data"`
	Exception struct {
		ErrorCode string `json:"errorcode"`
		Message   string `json:"message"`
	} `json:"exception"`
}

func (t *HTTPTransport) Call(ctx context.Context, method string, args map[string]any, out any) error {
	body, err := json.Marshal([]ajaxCall{{MethodName: method, Args: args}})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.token)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d: %s", method, resp.StatusCode, bytes.TrimSpace(raw))
	}

	var results []ajaxResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if len(results) != 1 {
		return fmt.Errorf("%s: expected 1 result, got %d", method, len(results))
	}
	res := results[0]
	if res.Error {
		return &RemoteError{Method: method, Code: res.Exception.ErrorCode, Message: res.Exception.Message}
	}
	if out == nil || len(res.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(res.Data, out); err != nil {
		return fmt.Errorf("%s: decode data: %w", method, err)
	}
	return nil
}
