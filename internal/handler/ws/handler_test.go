package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/z-council/backend/internal/model/persona"
	"github.com/zhouzirui/z-council/backend/internal/service/ai"
	"github.com/zhouzirui/z-council/backend/internal/service/ai/aitest"
	chatservice "github.com/zhouzirui/z-council/backend/internal/service/chat"
	councilservice "github.com/zhouzirui/z-council/backend/internal/service/council"
)

func scripted(input []*schema.Message) (string, error) {
	switch {
	case strings.HasPrefix(aitest.SystemPrompt(input), "You are Judge"):
		return "**Synthesis:** Balance.\n**Recommended Path:** Start small.", nil
	case strings.HasPrefix(aitest.LastUser(input), "Please rate"):
		return "6/10 fine", nil
	default:
		return "A perspective.", nil
	}
}

func setup(t *testing.T) (*httptest.Server, *chatservice.Service) {
	t.Helper()
	return setupWith(t, scripted, readTimeout)
}

func setupWith(t *testing.T, respond aitest.Responder, timeout time.Duration) (*httptest.Server, *chatservice.Service) {
	t.Helper()
	reg := persona.NewSeedRegistry()
	agents, err := ai.NewService(context.Background(), reg, aitest.NewChatModel(respond), nil, ai.AgentOptions{})
	if err != nil {
		t.Fatalf("ai.NewService err: %v", err)
	}
	chatSvc := chatservice.NewService()
	sessions := councilservice.NewSessions(chatSvc, councilservice.NewService(reg, agents, councilservice.Options{}))

	h := New(sessions)
	h.readTimeout = timeout
	h.pingInterval = timeout * 9 / 10

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, chatSvc
}

func dial(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readType(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	var msg struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read err: %v", err)
	}
	return msg.Type, msg.Data
}

func TestQuestionStreamsEventsUntilVerdict(t *testing.T) {
	srv, chatSvc := setup(t)
	session, _ := chatSvc.CreateSession(context.Background(), persona.JudgeID)
	conn := dial(t, srv, session.ID)

	if typ, _ := readType(t, conn); typ != "connected" {
		t.Fatalf("expected connected frame, got %s", typ)
	}

	if err := conn.WriteJSON(map[string]any{"type": "question", "data": map[string]string{"text": "Should I change careers?"}}); err != nil {
		t.Fatalf("write err: %v", err)
	}

	seen := map[string]int{}
	for {
		typ, data := readType(t, conn)
		seen[typ]++
		if typ == "error" {
			t.Fatalf("unexpected error frame: %s", data)
		}
		if typ == "verdict" {
			var ev councilservice.Event
			if err := json.Unmarshal(data, &ev); err != nil {
				t.Fatalf("decode verdict err: %v", err)
			}
			if ev.Verdict == nil || ev.Verdict.State != councilservice.StateDone {
				t.Fatalf("unexpected verdict event %+v", ev)
			}
			break
		}
	}
	if seen["perspective"] != 2 || seen["rating"] != 2 || seen["state"] != 4 {
		t.Fatalf("unexpected frames %v", seen)
	}
}

// slow answers every call after a delay, so a full run outlasts a short read timeout.
func slow(delay time.Duration) aitest.Responder {
	return func(input []*schema.Message) (string, error) {
		time.Sleep(delay)
		return scripted(input)
	}
}

func askQuestion(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": "question", "data": map[string]string{"text": "Should I change careers?"}}); err != nil {
		t.Fatalf("write err: %v", err)
	}
}

func TestLongRunKeepsConnectionOpen(t *testing.T) {
	// Five calls of 200ms each run well past the 500ms read timeout.
	srv, chatSvc := setupWith(t, slow(200*time.Millisecond), 500*time.Millisecond)
	session, _ := chatSvc.CreateSession(context.Background(), persona.JudgeID)
	conn := dial(t, srv, session.ID)
	readType(t, conn)

	askQuestion(t, conn)
	for {
		typ, data := readType(t, conn)
		if typ == "error" {
			t.Fatalf("unexpected error frame: %s", data)
		}
		if typ == "verdict" {
			break
		}
	}

	if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("write ping err: %v", err)
	}
	if typ, _ := readType(t, conn); typ != "pong" {
		t.Fatalf("expected pong after a long run, got %s", typ)
	}
}

func TestSecondQuestionWhileAnswering(t *testing.T) {
	srv, chatSvc := setupWith(t, slow(50*time.Millisecond), readTimeout)
	session, _ := chatSvc.CreateSession(context.Background(), persona.JudgeID)
	conn := dial(t, srv, session.ID)
	readType(t, conn)

	askQuestion(t, conn)
	askQuestion(t, conn)

	rejected := false
	for {
		typ, data := readType(t, conn)
		if typ == "error" {
			if !strings.Contains(string(data), "already being answered") {
				t.Fatalf("unexpected error frame: %s", data)
			}
			rejected = true
		}
		if typ == "verdict" {
			break
		}
	}
	if !rejected {
		t.Fatal("second question should be rejected while the first is running")
	}

	transcript, _ := chatSvc.LoadTranscript(context.Background(), session.ID)
	if len(transcript) != 2 {
		t.Fatalf("expected one question and one reply, got %d messages", len(transcript))
	}
}

func TestUnsupportedMessageType(t *testing.T) {
	srv, chatSvc := setup(t)
	session, _ := chatSvc.CreateSession(context.Background(), persona.JudgeID)
	conn := dial(t, srv, session.ID)
	readType(t, conn)

	if err := conn.WriteJSON(map[string]string{"type": "audio"}); err != nil {
		t.Fatalf("write err: %v", err)
	}
	if typ, _ := readType(t, conn); typ != "error" {
		t.Fatalf("expected error frame, got %s", typ)
	}
}

func TestUnknownSessionRejected(t *testing.T) {
	srv, _ := setup(t)
	resp, err := http.Get(srv.URL + "/ws/missing")
	if err != nil {
		t.Fatalf("get err: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
