package upstream

import (
	"context"
	"net/http"
)

// Chat forwards a chat-completion request body upstream, authorized with
// the given token. The body is relayed as received from the client; the
// proxy does not reshape it. On success the caller owns the response,
// including any SSE stream, and must close its body.
func (c *Client) Chat(ctx context.Context, token string, body []byte) (*http.Response, error) {
	headers := map[string]string{
		"Authorization": "Bearer " + token,
		"Accept":        "application/json, text/event-stream",
		"x-fe-version":  feVersion,
		"Origin":        origin,
		"Referer":       origin + "/",
	}

	return c.do(ctx, "chat", c.cfg.ChatURL, body, headers, c.cfg.Timeout)
}
