package chat_test

import (
	"context"
	"errors"
	"testing"

	chatmodel "github.com/zhouzirui/z-council/backend/internal/model/chat"
	chat "github.com/zhouzirui/z-council/backend/internal/service/chat"
)

func TestServiceGetSession(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "judge")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	got, err := svc.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession err: %v", err)
	}

	if got.ID != session.ID {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID, session.ID)
	}
	if got.CoordinatorID != "judge" {
		t.Fatalf("unexpected coordinator ID: got %s", got.CoordinatorID)
	}
}

func TestServiceGetSessionNotFound(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	if _, err := svc.GetSession(ctx, "missing"); err == nil {
		t.Fatal("expected error for missing session")
	}
}

func TestServiceCreateSessionRequiresCoordinator(t *testing.T) {
	svc := chat.NewService()
	if _, err := svc.CreateSession(context.Background(), ""); !errors.Is(err, chat.ErrCoordinatorRequired) {
		t.Fatalf("expected ErrCoordinatorRequired, got %v", err)
	}
}

func TestServiceTranscriptIsCopied(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	session, _ := svc.CreateSession(ctx, "judge")
	saved, err := svc.SaveMessage(ctx, chatmodel.Message{SessionID: session.ID, Sender: "user", Content: "hello"})
	if err != nil {
		t.Fatalf("SaveMessage err: %v", err)
	}
	if saved.ID == "" || saved.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp to be assigned: %+v", saved)
	}

	transcript, _ := svc.LoadTranscript(ctx, session.ID)
	transcript[0].Content = "mutated"

	again, _ := svc.LoadTranscript(ctx, session.ID)
	if again[0].Content != "hello" {
		t.Fatalf("transcript mutated through copy: %q", again[0].Content)
	}
}

func TestServiceSaveMessageUnknownSession(t *testing.T) {
	svc := chat.NewService()
	_, err := svc.SaveMessage(context.Background(), chatmodel.Message{SessionID: "nope", Content: "x"})
	if !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
