package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// probeRequest is the minimal synthetic chat request used for credential
// liveness checks. Its shape mirrors what the upstream web client sends;
// probes that don't look like real traffic get rejected even for valid
// tokens.
type probeRequest struct {
	Stream          bool              `json:"stream"`
	Model           string            `json:"model"`
	Messages        []probeMessage    `json:"messages"`
	BackgroundTasks map[string]bool   `json:"background_tasks"`
	ChatID          string            `json:"chat_id"`
	Features        map[string]bool   `json:"features"`
	ID              string            `json:"id"`
	MCPServers      []string          `json:"mcp_servers"`
	ModelItem       probeModelItem    `json:"model_item"`
	Params          map[string]any    `json:"params"`
	ToolServers     []string          `json:"tool_servers"`
	Variables       map[string]string `json:"variables"`
}

type probeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type probeModelItem struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnedBy string `json:"owned_by"`
}

// Probe issues a minimal chat request authorized with the given token and
// returns nil iff the upstream accepts it. The call is bounded by the
// configured probe timeout and has no side effects beyond the request
// itself; callers interpret the result.
func (c *Client) Probe(ctx context.Context, token string) error {
	payload := probeRequest{
		Stream: true,
		Model:  c.cfg.Model,
		Messages: []probeMessage{
			{Role: "user", Content: "hi"},
		},
		BackgroundTasks: map[string]bool{
			"title_generation": false,
			"tags_generation":  false,
		},
		ChatID: uuid.NewString(),
		Features: map[string]bool{
			"image_generation": false,
			"code_interpreter": false,
			"web_search":       false,
			"auto_web_search":  false,
		},
		ID:         uuid.NewString(),
		MCPServers: []string{},
		ModelItem: probeModelItem{
			ID:      c.cfg.Model,
			Name:    "GLM-4.5",
			OwnedBy: "openai",
		},
		Params:      map[string]any{},
		ToolServers: []string{},
		Variables: map[string]string{
			"{{USER_NAME}}":        "User",
			"{{USER_LOCATION}}":    "Unknown",
			"{{CURRENT_DATETIME}}": time.Now().Format("2006-01-02 15:04:05"),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal probe payload: %w", err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + token,
		"Accept":        "application/json, text/event-stream",
		"x-fe-version":  feVersion,
		"Origin":        origin,
		"Referer":       origin + "/",
	}

	resp, err := c.do(ctx, "probe", c.cfg.ChatURL, body, headers, c.cfg.ProbeTimeout)
	if err != nil {
		return err
	}

	// The probe only cares about acceptance; drain a little and drop the
	// stream rather than reading the whole completion.
	_, _ = io.CopyN(io.Discard, resp.Body, 512)
	resp.Body.Close()
	return nil
}
