package update

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGitHubSource_Latest(t *testing.T) {
	var gotAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"tag_name":"v1.5.0","html_url":"https://example.test/releases/v1.5.0","name":"ignored"}`))
	}))
	defer server.Close()

	release, err := NewGitHubSource(server.URL).Latest(context.Background())
	if err != nil {
		t.Fatalf("Latest returned error: %v", err)
	}
	if release.Tag != "v1.5.0" {
		t.Fatalf("Tag = %q, want %q", release.Tag, "v1.5.0")
	}
	if release.URL != "https://example.test/releases/v1.5.0" {
		t.Fatalf("URL = %q", release.URL)
	}
	if !strings.HasPrefix(gotAgent, "harbor/") {
		t.Fatalf("User-Agent = %q, want harbor/ prefix", gotAgent)
	}
}

func TestGitHubSource_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "not found", status: http.StatusNotFound, body: `{"message":"Not Found"}`, wantErr: "404"},
		{name: "rate limited", status: http.StatusForbidden, body: ``, wantErr: "403"},
		{name: "bad json", status: http.StatusOK, body: `{`, wantErr: "decode release"},
		{name: "missing tag", status: http.StatusOK, body: `{"html_url":"x"}`, wantErr: "no tag"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewGitHubSource(server.URL).Latest(context.Background())
			if err == nil {
				t.Fatal("Latest returned nil error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestGitHubSource_EmptyURL(t *testing.T) {
	if _, err := NewGitHubSource("  ").Latest(context.Background()); err == nil {
		t.Fatal("Latest returned nil error for empty url")
	}
}
