package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"z2api-hq/z2api/pkg/proxy/types"
	"z2api-hq/z2api/pkg/telemetry/logging"
	"z2api-hq/z2api/pkg/upstream"
)

// maxRequestBody bounds inbound chat request bodies.
const maxRequestBody = 10 << 20 // 10MB

// maxCredentialAttempts bounds how many pool credentials one request may
// consume before giving up. Failed credentials are reported back to the
// pool so later requests skip them.
const maxCredentialAttempts = 3

// ChatHandler relays chat-completion requests upstream using a pool
// credential, reporting success or failure back to the pool after each
// attempt.
type ChatHandler struct {
	pool   CredentialPool
	client ChatForwarder
	logger *slog.Logger
}

// NewChatHandler creates the chat completion relay handler.
func NewChatHandler(pool CredentialPool, client ChatForwarder, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{pool: pool, client: client, logger: logger}
}

// ServeHTTP implements http.Handler.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		types.NewInvalidRequestError("Failed to read request body").Write(w)
		return
	}
	if len(body) == 0 {
		types.NewInvalidRequestError("Request body is required").Write(w)
		return
	}

	attempts := maxCredentialAttempts
	if n := h.pool.Len(); n < attempts {
		attempts = n
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		token := h.pool.Acquire()
		if token == "" {
			types.NewServiceUnavailableError("No credentials available").Write(w)
			return
		}

		resp, err := h.client.Chat(r.Context(), token, body)
		if err != nil {
			lastErr = err
			if upstream.IsCredentialFailure(err) {
				h.logger.Warn("Credential attempt failed upstream, rotating",
					"token", logging.Token(token),
					"attempt", i+1,
					"error", err,
				)
				h.pool.MarkFailed(token)
				continue
			}
			h.writeUpstreamError(w, err)
			return
		}

		h.pool.MarkSuccess(token)
		h.relay(w, resp)
		return
	}

	if attempts == 0 {
		types.NewServiceUnavailableError("No credentials available").Write(w)
		return
	}

	h.logger.Error("All credential attempts failed",
		"attempts", attempts,
		"error", lastErr,
	)
	types.NewBadGatewayError("Upstream rejected all available credentials").Write(w)
}

// relay streams the upstream response to the client, flushing per chunk so
// SSE streaming works end to end.
func (h *ChatHandler) relay(w http.ResponseWriter, resp *http.Response) {
	defer resp.Body.Close()

	for _, header := range []string{"Content-Type", "Cache-Control", "Connection"} {
		if v := resp.Header.Get(header); v != "" {
			w.Header().Set(header, v)
		}
	}
	w.WriteHeader(resp.StatusCode)

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 32*1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			if err != io.EOF {
				h.logger.Debug("Upstream stream ended with error", "error", err)
			}
			return
		}
	}
}

// writeUpstreamError maps non-credential upstream failures to client
// responses.
func (h *ChatHandler) writeUpstreamError(w http.ResponseWriter, err error) {
	var timeoutErr *upstream.TimeoutError
	if errors.As(err, &timeoutErr) {
		types.NewGatewayTimeoutError("Upstream request timed out").Write(w)
		return
	}
	h.logger.Error("Upstream chat request failed", "error", err)
	types.NewBadGatewayError("Upstream request failed").Write(w)
}
