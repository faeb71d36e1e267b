package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/subctl/internal/models"
	"github.com/desertthunder/subctl/internal/shared"
)

const (
	PathConfig      = "/config"
	PathScan        = "/scan"
	PathDownload    = "/download"
	PathTestWebhook = "/test-webhook"
)

// Actions triggers work on the server.
type Actions interface {
	// Scan returns one result per configured path, failed paths included.
	Scan(ctx context.Context) ([]models.ScanResult, error)

	// Download asks the server to start a download task and returns its acceptance message.
	// Progress and completion arrive only through the stream.
	Download(ctx context.Context) (string, error)

	// TestWebhook asks the server to send a test notification.
	TestWebhook(ctx context.Context) (string, error)
}

// ConfigSaver submits a configuration document.
type ConfigSaver interface {
	Save(ctx context.Context, doc models.ConfigDocument) (string, error)
}

// ActionClient implements [Actions] over an [APIService].
type ActionClient struct {
	api *APIService
}

func NewActionClient(api *APIService) *ActionClient {
	return &ActionClient{api: api}
}

func (c *ActionClient) Scan(ctx context.Context) ([]models.ScanResult, error) {
	resp, err := c.api.Post(ctx, PathScan, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, resp.Rejection(PathScan)
	}

	var body models.ScanResponse
	if err := resp.Decode(&body); err != nil {
		return nil, err
	}
	if body.Results == nil {
		body.Results = []models.ScanResult{}
	}
	return body.Results, nil
}

// Download answers 409 when the server already runs a task.
func (c *ActionClient) Download(ctx context.Context) (string, error) {
	return postForMessage(ctx, c.api, PathDownload, nil)
}

// TestWebhook answers 400 when notifications are disabled or have no URL.
func (c *ActionClient) TestWebhook(ctx context.Context) (string, error) {
	return postForMessage(ctx, c.api, PathTestWebhook, nil)
}

// ConfigSyncClient implements [ConfigSaver] over an [APIService].
type ConfigSyncClient struct {
	api *APIService
}

func NewConfigSyncClient(api *APIService) *ConfigSyncClient {
	return &ConfigSyncClient{api: api}
}

// Save posts doc to /config. The document is encoded as-is; it is never modified.
func (c *ConfigSyncClient) Save(ctx context.Context, doc models.ConfigDocument) (string, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode config: %v", shared.ErrInvalidInput, err)
	}
	return postForMessage(ctx, c.api, PathConfig, data)
}

func postForMessage(ctx context.Context, api *APIService, path string, data []byte) (string, error) {
	resp, err := api.Post(ctx, path, data)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", resp.Rejection(path)
	}

	var body models.MessageResponse
	if err := resp.Decode(&body); err != nil {
		return "", err
	}
	if body.Success != nil && !*body.Success {
		return "", &shared.ServerRejection{Endpoint: path, StatusCode: resp.StatusCode, Message: body.Text()}
	}
	return body.Text(), nil
}
