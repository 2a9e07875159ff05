package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/nao1215/crawlctl/internal/model"
)

// Usage returns the team's usage counters.
func (c *Client) Usage(ctx context.Context) (*model.Usage, error) {
	var u model.Usage
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("/usage/", nil), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// PluginSchema returns the JSON schema describing the plugin options
// accepted in plugin_options. The raw document is returned for
// schema.Parse.
func (c *Client) PluginSchema(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("/plugins/schema", nil), nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
