package http

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"geoportal-service/internal/domain"
	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func TestWebSocketAnswerFlow(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t))
	defer server.Close()

	conn := dial(t, server, "s1")
	defer conn.Close()

	joined := readSnapshot(t, conn, "joined")
	if joined.SessionID != "s1" || joined.TotalQuestions != 4 || len(joined.Answers) != 0 {
		t.Fatalf("unexpected joined snapshot %+v", joined)
	}

	send(t, conn, map[string]any{
		"type":    "answer",
		"payload": map[string]any{"questionId": "interests", "optionId": "environment"},
	})
	result := readSnapshot(t, conn, "result")
	if len(result.Answers) != 1 || result.CurrentQuestion != 1 || result.Result.Answered != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(result.Result.RecommendedTopics) != 3 {
		t.Fatalf("expected three recommendations, got %v", result.Result.RecommendedTopics)
	}

	send(t, conn, map[string]any{"type": "next"})
	if got := readSnapshot(t, conn, "result"); got.CurrentQuestion != 2 {
		t.Fatalf("expected question 2 after next, got %d", got.CurrentQuestion)
	}
	send(t, conn, map[string]any{"type": "previous"})
	if got := readSnapshot(t, conn, "result"); got.CurrentQuestion != 1 {
		t.Fatalf("expected question 1 after previous, got %d", got.CurrentQuestion)
	}

	send(t, conn, map[string]any{
		"type":    "answer",
		"payload": map[string]any{"questionId": "interests", "optionId": "knitting"},
	})
	if msg := read(t, conn); msg.Type != "error" {
		t.Fatalf("expected error for unknown option, got %s", msg.Type)
	}

	send(t, conn, map[string]any{"type": "dance"})
	if msg := read(t, conn); msg.Type != "error" {
		t.Fatalf("expected error for unsupported type, got %s", msg.Type)
	}

	send(t, conn, map[string]any{"type": "reset"})
	if got := readSnapshot(t, conn, "result"); len(got.Answers) != 0 || got.CurrentQuestion != 0 {
		t.Fatalf("expected cleared session after reset, got %+v", got)
	}
}

func TestWebSocketSharesSessionAcrossConnections(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t))
	defer server.Close()

	first := dial(t, server, "shared")
	defer first.Close()
	readSnapshot(t, first, "joined")

	second := dial(t, server, "shared")
	defer second.Close()
	readSnapshot(t, second, "joined")

	send(t, first, map[string]any{
		"type":    "answer",
		"payload": map[string]any{"questionId": "skills", "optionId": "gis"},
	})
	readSnapshot(t, first, "result")
	got := readSnapshot(t, second, "result")
	if len(got.Answers) != 1 || got.Answers[0].SelectedOptionID != "gis" {
		t.Fatalf("expected second connection to see the answer, got %+v", got.Answers)
	}
}

func TestWebSocketGeneratesSessionID(t *testing.T) {
	server := httptest.NewServer(newTestRouter(t))
	defer server.Close()

	conn := dial(t, server, "")
	defer conn.Close()
	if joined := readSnapshot(t, conn, "joined"); joined.SessionID == "" {
		t.Fatalf("expected generated session id")
	}
}

func dial(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws/questionnaire?sessionId=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %v: %v", msg["type"], err)
	}
}

func read(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	var msg wsMessage
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	return msg
}

func readSnapshot(t *testing.T, conn *websocket.Conn, expect string) domain.SessionSnapshot {
	t.Helper()
	msg := read(t, conn)
	if msg.Type != expect {
		t.Fatalf("expected type %s, got %s: %s", expect, msg.Type, msg.Payload)
	}
	var snap domain.SessionSnapshot
	if err := json.Unmarshal(msg.Payload, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	return snap
}
