package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// newWSServer answers each request in its own goroutine so that a slow
// command does not hold back later ones.
func newWSServer(t *testing.T, handle func(req wsRequest) wsResponse) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		var writeMu sync.Mutex
		for {
			var req wsRequest
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			go func(req wsRequest) {
				resp := handle(req)
				resp.ID = req.ID
				writeMu.Lock()
				defer writeMu.Unlock()
				_ = conn.WriteJSON(resp)
			}(req)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWSGateway_RoutesResponsesByID(t *testing.T) {
	server := newWSServer(t, func(req wsRequest) wsResponse {
		switch req.Command {
		case "get_download_dir":
			time.Sleep(50 * time.Millisecond)
			return wsResponse{Result: json.RawMessage(`"/home/me/Downloads"`)}
		case "get_startup_enabled":
			return wsResponse{Result: json.RawMessage(`true`)}
		default:
			return wsResponse{Error: "unknown command " + req.Command}
		}
	})

	gw, err := NewWSGateway(wsURL(server))
	if err != nil {
		t.Fatalf("NewWSGateway returned error: %v", err)
	}
	t.Cleanup(func() { _ = gw.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	var wg sync.WaitGroup
	var dir string
	var startup bool
	var dirErr, startupErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		dir, dirErr = Call[string](ctx, gw, "get_download_dir", nil)
	}()
	go func() {
		defer wg.Done()
		startup, startupErr = Call[bool](ctx, gw, "get_startup_enabled", nil)
	}()
	wg.Wait()

	if dirErr != nil || dir != "/home/me/Downloads" {
		t.Fatalf("get_download_dir = %q, %v; want /home/me/Downloads", dir, dirErr)
	}
	if startupErr != nil || !startup {
		t.Fatalf("get_startup_enabled = %v, %v; want true", startup, startupErr)
	}
}

func TestWSGateway_RemoteErrorAndPayload(t *testing.T) {
	payloads := make(chan string, 1)
	server := newWSServer(t, func(req wsRequest) wsResponse {
		payloads <- string(req.Payload)
		return wsResponse{Error: "Rule 'Docs' not found"}
	})

	gw, err := NewWSGateway(wsURL(server))
	if err != nil {
		t.Fatalf("NewWSGateway returned error: %v", err)
	}
	t.Cleanup(func() { _ = gw.Close() })

	err = gw.Invoke(context.Background(), "delete_rule", map[string]string{"ruleName": "Docs"}, nil)
	var remote *Error
	if !errors.As(err, &remote) || remote.Message != "Rule 'Docs' not found" {
		t.Fatalf("Invoke error = %v, want remote rejection", err)
	}
	if gotPayload := <-payloads; gotPayload != `{"ruleName":"Docs"}` {
		t.Fatalf("payload = %s, want ruleName", gotPayload)
	}
}

func TestWSGateway_ContextCancelled(t *testing.T) {
	server := newWSServer(t, func(req wsRequest) wsResponse {
		time.Sleep(500 * time.Millisecond)
		return wsResponse{}
	})

	gw, err := NewWSGateway(wsURL(server))
	if err != nil {
		t.Fatalf("NewWSGateway returned error: %v", err)
	}
	t.Cleanup(func() { _ = gw.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = gw.Invoke(ctx, "trigger_organize_now", nil, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Invoke error = %v, want deadline exceeded", err)
	}
}

func TestWSGateway_ClosedRejectsCalls(t *testing.T) {
	gw, err := NewWSGateway("ws://127.0.0.1:1/ws")
	if err != nil {
		t.Fatalf("NewWSGateway returned error: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if err := gw.Invoke(context.Background(), "get_rules", nil, nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("Invoke after Close = %v, want ErrClosed", err)
	}
}

func TestWSGateway_DialFailure(t *testing.T) {
	gw, err := NewWSGateway("ws://127.0.0.1:1/ws")
	if err != nil {
		t.Fatalf("NewWSGateway returned error: %v", err)
	}
	err = gw.Invoke(context.Background(), "get_rules", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "dial") {
		t.Fatalf("Invoke error = %v, want dial error", err)
	}
}

func TestWSGateway_CloseDoesNotWaitForDial(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)

	gw, err := NewWSGateway(wsURL(server))
	if err != nil {
		t.Fatalf("NewWSGateway returned error: %v", err)
	}

	invokeErr := make(chan error, 1)
	go func() {
		invokeErr <- gw.Invoke(context.Background(), "get_rules", nil, nil)
	}()
	<-entered

	closed := make(chan struct{})
	go func() {
		_ = gw.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		close(release)
		t.Fatal("Close blocked while a dial was in progress")
	}

	close(release)
	select {
	case err := <-invokeErr:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("Invoke error = %v, want ErrClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Invoke did not return after Close")
	}
}
