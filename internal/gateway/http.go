package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAddr    = "127.0.0.1:7488"
	requestTimeout = 5 * time.Second
)

// Ensure HTTPGateway implements Gateway at compile time.
var _ Gateway = (*HTTPGateway)(nil)

// HTTPGateway sends each command as a JSON POST to /invoke/<command>.
type HTTPGateway struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

// NewHTTPGateway builds an HTTPGateway for the provided host:port or URL.
func NewHTTPGateway(addr string) (*HTTPGateway, error) {
	base, err := parseBaseURL(addr)
	if err != nil {
		return nil, err
	}
	return &HTTPGateway{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: userAgent(),
	}, nil
}

// Invoke implements Gateway.
func (g *HTTPGateway) Invoke(ctx context.Context, command string, payload, result any) error {
	if g == nil {
		return fmt.Errorf("gateway is nil")
	}
	if strings.TrimSpace(command) == "" {
		return fmt.Errorf("command name required")
	}
	body, err := marshalPayload(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", command, err)
	}

	rel := &url.URL{Path: "/invoke/" + url.PathEscape(command)}
	reqURL := g.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &Error{Command: command, Message: rejectionMessage(resp)}
	}
	if result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func rejectionMessage(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return strings.TrimSpace(payload.Error)
	}
	if text := strings.TrimSpace(string(data)); text != "" {
		return text
	}
	return fmt.Sprintf("service returned status %d", resp.StatusCode)
}

func marshalPayload(payload any) ([]byte, error) {
	if payload == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(payload)
}

func parseBaseURL(addr string) (*url.URL, error) {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		trimmed = defaultAddr
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse gateway address %q: %w", addr, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
