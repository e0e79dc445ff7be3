package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// signInRequest is the upstream authentication payload.
type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signInResponse is the subset of the sign-in response the proxy needs.
type signInResponse struct {
	Token string `json:"token"`
}

// SignIn authenticates with email and password and returns a fresh access
// token. Every failure mode (non-success status, missing token field,
// transport error) returns a typed error; the credential pool normalizes
// this to an empty token.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(signInRequest{Email: email, Password: password})
	if err != nil {
		return "", fmt.Errorf("failed to marshal sign-in payload: %w", err)
	}

	resp, err := c.do(ctx, "signin", c.cfg.SignInURL, body, nil, c.cfg.SignInTimeout)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &ParseError{Operation: "signin", Cause: fmt.Errorf("failed to read response: %w", err)}
	}

	var parsed signInResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", &ParseError{Operation: "signin", Cause: err}
	}
	if parsed.Token == "" {
		return "", &ParseError{Operation: "signin", Cause: fmt.Errorf("no token field in response")}
	}

	return parsed.Token, nil
}
