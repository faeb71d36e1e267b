package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/subctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the task server
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return resp.Rejection(path)
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, !cmd.Bool("json"))
	}
	return r.writePlain("%s\n", resp.Body)
}

// APIPost makes a direct POST request to the task server. Without --data the body is empty.
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	var body []byte
	if data := cmd.String("data"); data != "" {
		var jsonTest any
		if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
			return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
		}
		body = []byte(data)
	}

	r.logger.Info("POST request", "path", path, "bytes", len(body))

	resp, err := r.api.Post(ctx, path, body)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return resp.Rejection(path)
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, true)
	}
	return r.writePlain("%s\n", resp.Body)
}
