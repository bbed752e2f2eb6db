package archive

import (
	"testing"
	"time"

	"github.com/baikal-ai/baikalctl/internal/chat"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleConversation() []chat.Message {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return []chat.Message{
		{Role: chat.RoleUser, Content: "hi", Time: base},
		{Role: chat.RoleAssistant, Content: "hello", Time: base.Add(2 * time.Second)},
		{Role: chat.RoleUser, Content: "write a report", Time: base.Add(time.Minute)},
	}
}

func TestSaveAndReplay(t *testing.T) {
	s := openTestStore(t)

	id, err := s.Save(sampleConversation())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == "" {
		t.Fatal("expected a transcript id")
	}

	msgs, err := s.Messages(id)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("replayed %d messages, want 3", len(msgs))
	}
	if msgs[0].Role != chat.RoleUser || msgs[0].Content != "hi" {
		t.Errorf("first message = %+v", msgs[0])
	}
	if msgs[2].Content != "write a report" {
		t.Errorf("order not preserved: last = %+v", msgs[2])
	}
}

func TestSave_EmptyConversationRejected(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Save(nil); err == nil {
		t.Fatal("expected error for empty conversation")
	}
}

func TestList_NewestFirst(t *testing.T) {
	s := openTestStore(t)

	first, err := s.Save(sampleConversation())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := s.Save(sampleConversation()[:2])
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	list, err := s.List(10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("listed %d transcripts, want 2", len(list))
	}
	ids := map[string]int{list[0].ID: list[0].MessageCount, list[1].ID: list[1].MessageCount}
	if ids[first] != 3 || ids[second] != 2 {
		t.Errorf("message counts = %v", ids)
	}
}

func TestMessages_UnknownTranscript(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Messages("nope"); err == nil {
		t.Fatal("expected error for unknown transcript")
	}
}
