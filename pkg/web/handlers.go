package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/xiaoyulabs/go-xiaoyu/pkg/hub"
)

// handleStatus returns the loop's current state.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return c.JSON(s.state)
}

// handleGetLogs returns recent log entries.
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

// handleGetConversation returns the recent conversation.
func (s *Server) handleGetConversation(c *fiber.Ctx) error {
	s.conversationMu.RLock()
	defer s.conversationMu.RUnlock()
	return c.JSON(s.conversation)
}

// handleStatusWS streams state transitions. The current state is sent
// on connect so the dashboard renders immediately.
func (s *Server) handleStatusWS(c *websocket.Conn) {
	s.stateMu.RLock()
	c.WriteJSON(s.state)
	s.stateMu.RUnlock()

	hub.NewClient(s.statusHub, c).Run()
}

// handleLogsWS streams log entries, replaying the recent buffer first.
func (s *Server) handleLogsWS(c *websocket.Conn) {
	s.logsMu.RLock()
	for _, entry := range s.logs {
		c.WriteJSON(entry)
	}
	s.logsMu.RUnlock()

	hub.NewClient(s.logHub, c).Run()
}

// handleConversationWS streams conversation entries, replaying the
// recent buffer first.
func (s *Server) handleConversationWS(c *websocket.Conn) {
	s.conversationMu.RLock()
	for _, entry := range s.conversation {
		c.WriteJSON(entry)
	}
	s.conversationMu.RUnlock()

	hub.NewClient(s.convHub, c).Run()
}
