package handlers

import (
	"context"
	"net/http"

	"z2api-hq/z2api/pkg/credential"
)

// CredentialPool is the pool surface the handlers consume.
type CredentialPool interface {
	Acquire() string
	MarkFailed(token string)
	MarkSuccess(token string)
	HealthCheck(ctx context.Context, tokenOrEntry string) bool
	RefreshSingle(ctx context.Context, tokenOrEntry string) credential.RefreshResult
	BatchRefresh(ctx context.Context, maxConcurrent int) credential.BatchResult
	ReplaceAll(raws []string) int
	ClearAll()
	State() credential.State
	Len() int
	FailedCount() int
}

// ChatForwarder relays a chat-completion body upstream under a credential.
type ChatForwarder interface {
	Chat(ctx context.Context, token string, body []byte) (*http.Response, error)
}
