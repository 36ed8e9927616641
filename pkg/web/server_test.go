package web

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/xiaoyulabs/go-xiaoyu/pkg/pipeline"
)

func TestServerObserver(t *testing.T) {
	s := NewServer(":0", nil)
	s.SetBackend("baidu")

	s.PipelineState("t-1", pipeline.StateTranscribing)
	s.TurnCompleted(pipeline.Turn{
		ID:        "t-1",
		Timestamp: time.Now(),
		User:      "你好",
		AI:        "你好呀",
	})

	req := httptest.NewRequest("GET", "/api/status", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("status request: %v", err)
	}
	defer resp.Body.Close()

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.State != string(pipeline.StateTranscribing) {
		t.Errorf("state = %q", status.State)
	}
	if status.Backend != "baidu" || status.TurnID != "t-1" || status.Turns != 1 {
		t.Errorf("status = %+v", status)
	}
}

func TestServerConversationFeed(t *testing.T) {
	s := NewServer(":0", nil)

	s.TurnCompleted(pipeline.Turn{ID: "t-1", User: "在吗？", AI: "在呢"})

	req := httptest.NewRequest("GET", "/api/conversation", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("conversation request: %v", err)
	}
	defer resp.Body.Close()

	var entries []ConversationEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode conversation: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want user and assistant", len(entries))
	}
	if entries[0].Role != "user" || entries[0].Message != "在吗？" {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].Role != "assistant" || entries[1].Message != "在呢" {
		t.Errorf("second entry = %+v", entries[1])
	}
}

func TestServerLogBuffer(t *testing.T) {
	s := NewServer(":0", nil)

	for i := 0; i < maxLogEntries+10; i++ {
		s.AddLog("info", "line")
	}

	req := httptest.NewRequest("GET", "/api/logs", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("logs request: %v", err)
	}
	defer resp.Body.Close()

	var entries []LogEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode logs: %v", err)
	}
	if len(entries) != maxLogEntries {
		t.Errorf("log buffer = %d entries, want capped at %d", len(entries), maxLogEntries)
	}
}
