// API service for single request/response exchanges with the task server
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/subctl/internal/models"
	"github.com/desertthunder/subctl/internal/shared"
)

// DefaultBaseURL is where the task server listens unless configured otherwise.
const DefaultBaseURL = "http://127.0.0.1:5000"

// DefaultTimeout bounds one request/response exchange. Scans of large trees can be slow.
const DefaultTimeout = 5 * time.Minute

// APIService makes raw HTTP requests to the task server.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API service instance for the task server.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

func (a *APIService) BaseURL() string { return a.baseURL }

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into v.
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("%w: invalid response body: %v", shared.ErrAPIRequest, err)
	}
	return nil
}

// Rejection turns a non-2xx response into a [*shared.ServerRejection].
//
// The message is taken from a JSON "error" or "message" field, then from the plain-text body,
// then from the status text.
func (r *APIResponse) Rejection(endpoint string) *shared.ServerRejection {
	msg := ""
	if r.IsJSON {
		var body models.MessageResponse
		if err := json.Unmarshal(r.Body, &body); err == nil {
			msg = body.Text()
		}
	}
	if msg == "" && !r.IsJSON {
		msg = strings.TrimSpace(string(r.Body))
	}
	if msg == "" {
		msg = http.StatusText(r.StatusCode)
	}

	return &shared.ServerRejection{Endpoint: endpoint, StatusCode: r.StatusCode, Message: msg}
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	return a.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
// A nil body sends an empty request.
func (a *APIService) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return a.do(ctx, http.MethodPost, path, data)
}

func (a *APIService) do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	fullURL := a.baseURL + path

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrAPIRequest, err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}

	var jsonData any
	if err := json.Unmarshal(respBody, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
