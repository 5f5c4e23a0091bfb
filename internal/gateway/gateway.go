package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/five82/harbor/internal/version"
)

// Gateway invokes a named operation on the Harbor service. A nil result
// discards whatever the service returns.
type Gateway interface {
	Invoke(ctx context.Context, command string, payload, result any) error
}

// Call invokes command and decodes the result into a value of type T.
func Call[T any](ctx context.Context, gw Gateway, command string, payload any) (T, error) {
	var out T
	if gw == nil {
		return out, fmt.Errorf("gateway is nil")
	}
	if err := gw.Invoke(ctx, command, payload, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// Error is a rejection reported by the service itself, as opposed to a
// transport failure.
type Error struct {
	Command string
	Message string
}

func (e *Error) Error() string {
	if e.Command == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Command, e.Message)
}

// Message converts err into the string shown to the user: the service's own
// message when it rejected the call, otherwise the error text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var remote *Error
	if errors.As(err, &remote) && remote.Message != "" {
		return remote.Message
	}
	return err.Error()
}

// Dial returns the transport matching addr: ws:// and wss:// addresses use a
// WebSocket connection, anything else is treated as an HTTP host:port or URL.
func Dial(addr string) (Gateway, error) {
	trimmed := strings.TrimSpace(addr)
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "ws://") || strings.HasPrefix(lower, "wss://") {
		return NewWSGateway(trimmed)
	}
	return NewHTTPGateway(trimmed)
}

func userAgent() string {
	return "harbor/" + version.Current()
}
