package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"AgriPulse/pkg/logger"
)

func TestStreamHubBroadcast(t *testing.T) {
	hub := NewStreamHub(logger.Nop())
	e := echo.New()
	hub.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()
	defer hub.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// allow the server goroutine to register the client
	time.Sleep(50 * time.Millisecond)
	hub.NotifyRefresh([]string{"cabbage-taipei1"})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event refreshEvent
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.Type != "dataset_refresh" {
		t.Errorf("event type = %q", event.Type)
	}
	if len(event.IDs) != 1 || event.IDs[0] != "cabbage-taipei1" {
		t.Errorf("event ids = %v", event.IDs)
	}
}

func TestStreamHubDropsDeadClients(t *testing.T) {
	hub := NewStreamHub(logger.Nop())
	e := echo.New()
	hub.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	conn.Close()
	time.Sleep(50 * time.Millisecond)

	// must not panic or block with a closed client around
	hub.NotifyRefresh([]string{"x"})
	hub.Close()
}
