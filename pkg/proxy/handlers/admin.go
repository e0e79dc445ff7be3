package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"z2api-hq/z2api/pkg/config"
	"z2api-hq/z2api/pkg/proxy/types"
)

// AdminHandler exposes the credential pool's management surface: listing,
// wholesale replacement, clearing, single-credential testing, refresh
// triggers, and a read-only view of the running configuration. It only ever
// calls the pool's public operations.
type AdminHandler struct {
	pool   CredentialPool
	config *config.Config
	logger *slog.Logger
}

// NewAdminHandler creates the admin surface over pool. cfg may be nil; the
// config view then reports 404.
func NewAdminHandler(pool CredentialPool, cfg *config.Config, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{pool: pool, config: cfg, logger: logger}
}

type credentialsUpdateRequest struct {
	Credentials []string `json:"credentials"`
}

type credentialTestRequest struct {
	Credential string `json:"credential"`
}

type refreshAllRequest struct {
	MaxConcurrent int `json:"max_concurrent"`
}

// HandleCredentials serves GET (list), POST (replace), and DELETE (clear)
// on the credentials collection.
func (h *AdminHandler) HandleCredentials(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listCredentials(w)
	case http.MethodPost:
		h.replaceCredentials(w, r)
	case http.MethodDelete:
		h.clearCredentials(w)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *AdminHandler) listCredentials(w http.ResponseWriter) {
	state := h.pool.State()
	writeJSON(w, http.StatusOK, map[string]any{
		"credentials":        state.Entries,
		"count":              len(state.Entries),
		"failed_count":       len(state.Failed),
		"failed_credentials": state.Failed,
	})
}

func (h *AdminHandler) replaceCredentials(w http.ResponseWriter, r *http.Request) {
	var req credentialsUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		types.NewInvalidRequestError("Invalid JSON body").Write(w)
		return
	}

	valid := make([]string, 0, len(req.Credentials))
	for _, c := range req.Credentials {
		if trimmed := strings.TrimSpace(c); trimmed != "" {
			valid = append(valid, trimmed)
		}
	}
	if len(valid) == 0 {
		types.NewInvalidRequestError("At least one valid credential is required").Write(w)
		return
	}

	n := h.pool.ReplaceAll(valid)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "credentials updated",
		"count":   n,
	})
}

func (h *AdminHandler) clearCredentials(w http.ResponseWriter) {
	h.pool.ClearAll()
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "all credentials cleared",
	})
}

// HandleTest probes a single credential and reports whether it works.
func (h *AdminHandler) HandleTest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req credentialTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Credential == "" {
		types.NewInvalidRequestError("A credential is required").Write(w)
		return
	}

	valid := h.pool.HealthCheck(r.Context(), req.Credential)
	writeJSON(w, http.StatusOK, map[string]any{
		"valid": valid,
	})
}

// HandleRefresh re-authenticates a single credential in place.
func (h *AdminHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req credentialTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Credential == "" {
		types.NewInvalidRequestError("A credential is required").Write(w)
		return
	}

	res := h.pool.RefreshSingle(r.Context(), req.Credential)
	status := http.StatusOK
	if !res.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, res)
}

// HandleRefreshAll triggers a batch refresh of every refreshable entry.
func (h *AdminHandler) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req refreshAllRequest
	if r.Body != nil {
		// Body is optional; decode errors fall back to the default limit.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	res := h.pool.BatchRefresh(r.Context(), req.MaxConcurrent)
	writeJSON(w, http.StatusOK, res)
}

// HandleConfig serves a read-only, sanitized view of the running
// configuration. Credential values and the inbound API key are never
// included; configuration changes go through the config file and restart.
func (h *AdminHandler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.config == nil {
		http.NotFound(w, r)
		return
	}

	cfg := h.config
	writeJSON(w, http.StatusOK, map[string]any{
		"listen_address": cfg.Server.ListenAddress,
		"upstream": map[string]any{
			"chat_url":   cfg.Upstream.ChatURL,
			"signin_url": cfg.Upstream.SignInURL,
			"model":      cfg.Upstream.Model,
		},
		"pool": map[string]any{
			"recovery_interval":       cfg.Pool.RecoveryInterval.String(),
			"recovery_retry_interval": cfg.Pool.RecoveryRetryInterval.String(),
			"refresh_schedule":        cfg.Pool.RefreshSchedule,
			"refresh_concurrency":     cfg.Pool.RefreshConcurrency,
		},
		"store": map[string]any{
			"backend": cfg.Store.Backend,
		},
		"auth_enabled":    cfg.Auth.APIKey != "",
		"metrics_enabled": cfg.Telemetry.Metrics.Enabled,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
