package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	councilService "github.com/zhouzirui/z-council/backend/internal/service/council"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 10 * time.Second
)

// Handler WebSocket议会处理器
type Handler struct {
	sessions *councilService.Sessions
	upgrader websocket.Upgrader

	// pingInterval must stay below readTimeout so pongs keep the read deadline alive.
	readTimeout  time.Duration
	pingInterval time.Duration
}

// New 创建WebSocket处理器
func New(sessions *councilService.Sessions) *Handler {
	return &Handler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		readTimeout:  readTimeout,
		pingInterval: readTimeout * 9 / 10,
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// QuestionMessage 提问消息
type QuestionMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// connection 串行化对同一连接的写操作
type connection struct {
	conn      *websocket.Conn
	sessionID string
	mu        sync.Mutex

	// 同一连接上一次只回答一个问题
	busy atomic.Bool
	runs sync.WaitGroup
}

func (c *connection) write(msgType string, data interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	msg := outgoingMessage{
		Type:      msgType,
		SessionID: c.sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write %s failed: %v", msgType, err)
	}
}

func (c *connection) sendError(message string) {
	c.write("error", map[string]string{"message": message})
}

func (c *connection) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// handleWebSocket 处理WebSocket连接
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if h.sessions == nil {
		http.Error(w, "llm provider not configured", http.StatusServiceUnavailable)
		return
	}
	if _, err := h.sessions.Transcript(r.Context(), sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	log.Printf("[websocket] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	conn := &connection{conn: ws, sessionID: sessionID}
	defer func() {
		// 客户端断开时取消正在进行的议会运行，并在关闭连接前等待其退出
		cancel()
		conn.runs.Wait()
	}()

	ws.SetReadDeadline(time.Now().Add(h.readTimeout))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(h.readTimeout))
		return nil
	})

	go pingLoop(ctx, conn, h.pingInterval)

	conn.write("connected", map[string]any{"sessionId": sessionID})

	for {
		var msg inboundMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}

		ws.SetReadDeadline(time.Now().Add(h.readTimeout))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			conn.sendError("session mismatch")
			continue
		}

		h.handleMessage(ctx, conn, &msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *connection, msg *inboundMessage) {
	switch msg.Type {
	case "question":
		var q QuestionMessage
		if err := json.Unmarshal(msg.Data, &q); err != nil {
			conn.sendError("invalid question payload")
			return
		}
		if !conn.busy.CompareAndSwap(false, true) {
			conn.sendError("a question is already being answered")
			return
		}
		// 议会运行可能远超读超时，放到后台执行，读循环继续处理 pong 和新消息
		conn.runs.Add(1)
		go func() {
			defer conn.runs.Done()
			defer conn.busy.Store(false)
			h.handleQuestion(ctx, conn, q.Text)
		}()
	case "ping":
		conn.write("pong", nil)
	default:
		conn.sendError("unsupported message type: " + msg.Type)
	}
}

// handleQuestion 运行议会并把每个事件转发给客户端
func (h *Handler) handleQuestion(ctx context.Context, conn *connection, text string) {
	reported := false
	sink := func(ev councilService.Event) {
		if ev.Type == councilService.EventError {
			reported = true
		}
		conn.write(string(ev.Type), ev)
	}

	if _, err := h.sessions.Ask(ctx, conn.sessionID, text, sink); err != nil {
		log.Printf("[websocket] session=%s council run failed: %v", conn.sessionID, err)
		if !reported {
			conn.sendError(err.Error())
		}
	}
}

// pingLoop 定期发送ping消息
func pingLoop(ctx context.Context, conn *connection, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		}
	}
}
