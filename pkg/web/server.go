// Package web provides a real-time dashboard for the assistant.
//
// The server is a debugging surface, not a production API: it shows
// the turn loop's current stage, the rolling conversation and a log
// feed, each mirrored live over websockets. It implements
// pipeline.Observer so it can be handed straight to the orchestrator.
package web

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/xiaoyulabs/go-xiaoyu/pkg/hub"
	"github.com/xiaoyulabs/go-xiaoyu/pkg/pipeline"
)

const (
	maxLogEntries          = 500
	maxConversationEntries = 100
)

// Status is the loop state shown on the dashboard.
type Status struct {
	State     string `json:"state"`
	TurnID    string `json:"turn_id"`
	Backend   string `json:"backend"`
	Turns     int    `json:"turns"`
	UpdatedAt string `json:"updated_at"`
}

// LogEntry represents a log line for the dashboard.
type LogEntry struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"message"`
}

// ConversationEntry represents a message in the conversation.
type ConversationEntry struct {
	Time    string `json:"time"`
	Role    string `json:"role"` // user or assistant
	Message string `json:"message"`
}

// Server is the web dashboard server.
type Server struct {
	app    *fiber.App
	addr   string
	logger *slog.Logger

	state   Status
	stateMu sync.RWMutex

	logs   []LogEntry
	logsMu sync.RWMutex

	conversation   []ConversationEntry
	conversationMu sync.RWMutex

	statusHub *hub.Hub
	logHub    *hub.Hub
	convHub   *hub.Hub
}

// NewServer creates a new dashboard server listening on addr.
func NewServer(addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		addr:         addr,
		logger:       logger.With("component", "web"),
		logs:         make([]LogEntry, 0, maxLogEntries),
		conversation: make([]ConversationEntry, 0, maxConversationEntries),
		statusHub:    hub.New("status", logger),
		logHub:       hub.New("logs", logger),
		convHub:      hub.New("conversation", logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "xiaoyu dashboard",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/logs", s.handleGetLogs)
	api.Get("/conversation", s.handleGetConversation)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))
	app.Get("/ws/conversation", websocket.New(s.handleConversationWS))

	s.app = app
	return s
}

// SetBackend records which recognition backend is active.
func (s *Server) SetBackend(name string) {
	s.stateMu.Lock()
	s.state.Backend = name
	s.stateMu.Unlock()
}

// Start starts the web server and blocks.
func (s *Server) Start() error {
	go s.statusHub.Run()
	go s.logHub.Run()
	go s.convHub.Run()

	s.logger.Info("dashboard listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// StartAsync starts the web server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.logger.Error("dashboard server failed", "error", err)
		}
	}()
}

// PipelineState implements pipeline.Observer.
func (s *Server) PipelineState(turnID string, state pipeline.State) {
	s.stateMu.Lock()
	s.state.State = string(state)
	s.state.TurnID = turnID
	s.state.UpdatedAt = time.Now().Format(time.RFC3339)
	snapshot := s.state
	s.stateMu.Unlock()

	s.statusHub.BroadcastJSON(snapshot)
}

// TurnCompleted implements pipeline.Observer.
func (s *Server) TurnCompleted(turn pipeline.Turn) {
	s.stateMu.Lock()
	s.state.Turns++
	s.stateMu.Unlock()

	s.addConversation("user", turn.User)
	s.addConversation("assistant", turn.AI)
}

// AddLog adds a log entry and broadcasts it to clients.
func (s *Server) AddLog(level, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Level:   level,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogEntries {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

func (s *Server) addConversation(role, message string) {
	entry := ConversationEntry{
		Time:    time.Now().Format("15:04:05"),
		Role:    role,
		Message: message,
	}

	s.conversationMu.Lock()
	s.conversation = append(s.conversation, entry)
	if len(s.conversation) > maxConversationEntries {
		s.conversation = s.conversation[1:]
	}
	s.conversationMu.Unlock()

	s.convHub.BroadcastJSON(entry)
}

// Shutdown gracefully stops the web server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Verify Server implements the observer at compile time.
var _ pipeline.Observer = (*Server)(nil)
