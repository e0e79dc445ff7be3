package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"z2api-hq/z2api/pkg/config"
)

func testConfig(chatURL, signInURL string) config.UpstreamConfig {
	return config.UpstreamConfig{
		ChatURL:             chatURL,
		SignInURL:           signInURL,
		Model:               "0727-360B-API",
		Timeout:             5 * time.Second,
		ProbeTimeout:        5 * time.Second,
		SignInTimeout:       5 * time.Second,
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     time.Minute,
	}
}

func TestProbe(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantErr   bool
		wantAuth  bool
		wantUpstr bool
	}{
		{name: "ok", status: http.StatusOK, wantErr: false},
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: true, wantAuth: true},
		{name: "forbidden", status: http.StatusForbidden, wantErr: true, wantAuth: true},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true, wantUpstr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotAuth string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")

				var payload probeRequest
				if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
					t.Errorf("probe payload not decodable: %v", err)
				}
				if !payload.Stream {
					t.Error("probe payload should request streaming")
				}
				if payload.Model != "0727-360B-API" {
					t.Errorf("probe model = %q", payload.Model)
				}
				if len(payload.Messages) != 1 || payload.Messages[0].Content != "hi" {
					t.Errorf("probe messages = %+v", payload.Messages)
				}

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("data: {}\n\n"))
			}))
			defer srv.Close()

			client := NewClient(testConfig(srv.URL, srv.URL+"/signin"))
			err := client.Probe(context.Background(), "test-token")

			if (err != nil) != tt.wantErr {
				t.Fatalf("Probe() error = %v, wantErr %v", err, tt.wantErr)
			}
			if gotAuth != "Bearer test-token" {
				t.Errorf("Authorization = %q, want Bearer test-token", gotAuth)
			}

			if tt.wantAuth {
				var authErr *AuthError
				if !errors.As(err, &authErr) {
					t.Errorf("expected AuthError, got %T", err)
				}
			}
			if tt.wantUpstr {
				var upErr *UpstreamError
				if !errors.As(err, &upErr) {
					t.Errorf("expected UpstreamError, got %T", err)
				}
			}
		})
	}
}

func TestProbeTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL, srv.URL)
	cfg.ProbeTimeout = 20 * time.Millisecond

	client := NewClient(cfg)
	err := client.Probe(context.Background(), "tok")
	if err == nil {
		t.Fatal("Probe() should time out")
	}

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Errorf("expected TimeoutError, got %T: %v", err, err)
	}
}

func TestSignIn(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body:   `{"token": "fresh-token-123"}`,
			want:   "fresh-token-123",
		},
		{
			name:    "missing token field",
			status:  http.StatusOK,
			body:    `{"message": "ok"}`,
			wantErr: true,
		},
		{
			name:    "bad status",
			status:  http.StatusUnauthorized,
			body:    `{"error": "invalid credentials"}`,
			wantErr: true,
		},
		{
			name:    "malformed body",
			status:  http.StatusOK,
			body:    `{not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req signInRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("sign-in payload not decodable: %v", err)
				}
				if req.Email != "user@example.com" || req.Password != "pw" {
					t.Errorf("sign-in payload = %+v", req)
				}

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(testConfig(srv.URL, srv.URL))
			token, err := client.SignIn(context.Background(), "user@example.com", "pw")

			if (err != nil) != tt.wantErr {
				t.Fatalf("SignIn() error = %v, wantErr %v", err, tt.wantErr)
			}
			if token != tt.want {
				t.Errorf("SignIn() token = %q, want %q", token, tt.want)
			}
		})
	}
}

func TestChatRelaysBodyAndStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"model":"glm-4.5","stream":true}` {
			t.Errorf("upstream got body %s", body)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: {\"choice\":1}\n\ndata: [DONE]\n\n"))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL, srv.URL))
	resp, err := client.Chat(context.Background(), "tok", []byte(`{"model":"glm-4.5","stream":true}`))
	if err != nil {
		t.Fatalf("Chat() error = %v", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading relayed stream: %v", err)
	}
	if string(data) != "data: {\"choice\":1}\n\ndata: [DONE]\n\n" {
		t.Errorf("relayed stream = %q", data)
	}
}

func TestChatRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL, srv.URL))
	_, err := client.Chat(context.Background(), "tok", []byte(`{}`))

	var rateErr *RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("expected RateLimitError, got %T: %v", err, err)
	}
	if rateErr.RetryAfter != 30*time.Second {
		t.Errorf("RetryAfter = %v, want 30s", rateErr.RetryAfter)
	}
	if !IsCredentialFailure(err) {
		t.Error("rate limit should count as credential failure")
	}
}

func TestIsCredentialFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "auth error", err: &AuthError{Operation: "chat"}, want: true},
		{name: "rate limit", err: &RateLimitError{Operation: "chat"}, want: true},
		{name: "server error", err: &UpstreamError{Operation: "chat", StatusCode: 500}, want: true},
		{name: "bad gateway", err: &UpstreamError{Operation: "chat", StatusCode: 502}, want: true},
		{name: "transport failure", err: &UpstreamError{Operation: "chat", Cause: errors.New("connection refused")}, want: true},
		{name: "client error", err: &UpstreamError{Operation: "chat", StatusCode: 400}, want: false},
		{name: "timeout", err: &TimeoutError{Operation: "chat"}, want: false},
		{name: "parse error", err: &ParseError{Operation: "signin"}, want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCredentialFailure(tt.err); got != tt.want {
				t.Errorf("IsCredentialFailure() = %v, want %v", got, tt.want)
			}
		})
	}
}
