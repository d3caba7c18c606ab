package monitor

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", h.ClientCount(), want)
}

func dialHub(t *testing.T, h *Hub) (*websocket.Conn, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial failed: %v", err)
	}
	return conn, srv
}

func TestHubPublishReachesClient(t *testing.T) {
	h := NewHub(zap.NewNop())
	go h.Start()
	defer h.Stop()

	conn, srv := dialHub(t, h)
	defer srv.Close()
	defer conn.Close()

	waitForClients(t, h, 1)

	update := RiskUpdateMessage{SessionID: "s1", WindowIdx: 3, RiskProb: 0.91, Label: 1}
	if err := h.Publish(TypeRiskUpdate, update); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatalf("bad envelope: %v", err)
	}
	if msg.Type != TypeRiskUpdate {
		t.Fatalf("type = %s, want %s", msg.Type, TypeRiskUpdate)
	}
	if msg.ID == "" || msg.Timestamp.IsZero() {
		t.Fatalf("missing envelope metadata: %+v", msg)
	}

	var got RiskUpdateMessage
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if got.SessionID != "s1" || got.WindowIdx != 3 || got.Label != 1 {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if got.RiskProb != 0.91 {
		t.Fatalf("risk_prob = %v, want 0.91", got.RiskProb)
	}
}

func TestHubStopClosesClients(t *testing.T) {
	h := NewHub(zap.NewNop())
	go h.Start()

	conn, srv := dialHub(t, h)
	defer srv.Close()
	defer conn.Close()

	waitForClients(t, h, 1)
	h.Stop()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected connection to close after hub stop")
	}
}

func TestHubPublishRejectsBadPayload(t *testing.T) {
	h := NewHub(nil)
	if err := h.Publish(TypeAlert, make(chan int)); err == nil {
		t.Fatal("expected marshal error for unserializable payload")
	}
}
