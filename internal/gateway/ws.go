package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrClosed is returned by WSGateway once Close has been called.
var ErrClosed = errors.New("gateway closed")

const handshakeTimeout = 5 * time.Second

// Ensure WSGateway implements Gateway at compile time.
var _ Gateway = (*WSGateway)(nil)

// WSGateway multiplexes commands over a single WebSocket connection. Each
// request carries a generated id and the matching response is routed back to
// the waiting caller, so calls may complete out of order.
type WSGateway struct {
	url    string
	dialer *websocket.Dialer
	header http.Header

	mu      sync.Mutex // guards conn, dialing, pending and closed
	conn    *websocket.Conn
	dialing chan struct{} // closed when the running dial finishes
	pending map[string]chan wsResponse
	closed  bool

	writeMu sync.Mutex
}

type wsRequest struct {
	ID      string          `json:"id"`
	Command string          `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsResponse struct {
	ID     string          `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`

	lost error
}

// NewWSGateway prepares a gateway for the ws:// or wss:// URL. The
// connection is established lazily and re-established after it drops.
func NewWSGateway(rawURL string) (*WSGateway, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, fmt.Errorf("websocket url required")
	}
	header := http.Header{}
	header.Set("User-Agent", userAgent())
	return &WSGateway{
		url:     trimmed,
		dialer:  &websocket.Dialer{HandshakeTimeout: handshakeTimeout, Proxy: http.ProxyFromEnvironment},
		header:  header,
		pending: make(map[string]chan wsResponse),
	}, nil
}

// Invoke implements Gateway.
func (g *WSGateway) Invoke(ctx context.Context, command string, payload, result any) error {
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

	conn, err := g.connect(ctx)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	ch := make(chan wsResponse, 1)
	g.mu.Lock()
	g.pending[id] = ch
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		delete(g.pending, id)
		g.mu.Unlock()
	}()

	g.writeMu.Lock()
	err = conn.WriteJSON(wsRequest{ID: id, Command: command, Payload: body})
	g.writeMu.Unlock()
	if err != nil {
		g.drop(conn, err)
		return fmt.Errorf("send %s: %w", command, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case resp := <-ch:
		if resp.lost != nil {
			return fmt.Errorf("connection lost during %s: %w", command, resp.lost)
		}
		if resp.Error != "" {
			return &Error{Command: command, Message: resp.Error}
		}
		if result == nil || len(resp.Result) == 0 {
			return nil
		}
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
}

// Close shuts the connection down and fails any call still waiting.
func (g *WSGateway) Close() error {
	g.mu.Lock()
	g.closed = true
	conn := g.conn
	g.mu.Unlock()
	if conn == nil {
		return nil
	}
	g.drop(conn, ErrClosed)
	return nil
}

// connect returns the live connection, dialing one if needed. The dial runs
// without g.mu held; concurrent callers wait for it and then retry.
func (g *WSGateway) connect(ctx context.Context) (*websocket.Conn, error) {
	for {
		g.mu.Lock()
		if g.closed {
			g.mu.Unlock()
			return nil, ErrClosed
		}
		if g.conn != nil {
			conn := g.conn
			g.mu.Unlock()
			return conn, nil
		}
		if wait := g.dialing; wait != nil {
			g.mu.Unlock()
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		done := make(chan struct{})
		g.dialing = done
		g.mu.Unlock()

		conn, resp, err := g.dialer.DialContext(ctx, g.url, g.header)

		g.mu.Lock()
		g.dialing = nil
		close(done)
		if err != nil {
			g.mu.Unlock()
			if resp != nil {
				return nil, fmt.Errorf("dial %s: status %d: %w", g.url, resp.StatusCode, err)
			}
			return nil, fmt.Errorf("dial %s: %w", g.url, err)
		}
		if g.closed {
			g.mu.Unlock()
			_ = conn.Close()
			return nil, ErrClosed
		}
		g.conn = conn
		g.mu.Unlock()

		go g.readLoop(conn)
		return conn, nil
	}
}

func (g *WSGateway) readLoop(conn *websocket.Conn) {
	for {
		var resp wsResponse
		if err := conn.ReadJSON(&resp); err != nil {
			g.drop(conn, err)
			return
		}
		g.mu.Lock()
		ch, ok := g.pending[resp.ID]
		g.mu.Unlock()
		if !ok {
			continue
		}
		select {
		case ch <- resp:
		default:
		}
	}
}

// drop discards conn and fails every pending call sent over it.
func (g *WSGateway) drop(conn *websocket.Conn, cause error) {
	g.mu.Lock()
	if g.conn == conn {
		g.conn = nil
		for id, ch := range g.pending {
			select {
			case ch <- wsResponse{ID: id, lost: cause}:
			default:
			}
		}
	}
	g.mu.Unlock()
	_ = conn.Close()
}
