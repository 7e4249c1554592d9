package council

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/zhouzirui/z-council/backend/internal/model/chat"
	chatService "github.com/zhouzirui/z-council/backend/internal/service/chat"
)

// SenderUser marks messages written by the person asking.
const SenderUser = "user"

// Sessions runs questions against the coordinator a chat session is bound to and records the transcript.
type Sessions struct {
	chat   *chatService.Service
	runner *Service
}

// NewSessions binds the runtime to a session store.
func NewSessions(chatSvc *chatService.Service, runner *Service) *Sessions {
	return &Sessions{chat: chatSvc, runner: runner}
}

// Ask runs the session's coordinator on question. The question and the final synthesis are appended to the transcript.
func (s *Sessions) Ask(ctx context.Context, sessionID, question string, sink Sink) (*Verdict, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	session, err := s.chat.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	transcript, err := s.chat.LoadTranscript(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	// Clients may persist the question themselves before opening a stream.
	if !hasMatchingUserMessage(transcript, question) {
		if _, err := s.chat.SaveMessage(ctx, chat.Message{SessionID: session.ID, Sender: SenderUser, Content: question}); err != nil {
			log.Printf("[council] failed to save user message session=%s: %v", session.ID, err)
		}
	}

	verdict, err := s.runner.Run(ctx, session.CoordinatorID, session.ID, question, sink)
	if err != nil {
		return verdict, err
	}

	reply := chat.Message{
		SessionID: session.ID,
		Sender:    verdict.Coordinator,
		Content:   verdict.Synthesis,
		RunID:     verdict.RunID,
	}
	if _, err := s.chat.SaveMessage(ctx, reply); err != nil {
		return verdict, fmt.Errorf("save synthesis: %w", err)
	}
	return verdict, nil
}

// Transcript returns the recorded messages of a session.
func (s *Sessions) Transcript(ctx context.Context, sessionID string) ([]chat.Message, error) {
	return s.chat.LoadTranscript(ctx, sessionID)
}

func hasMatchingUserMessage(messages []chat.Message, content string) bool {
	if len(messages) == 0 {
		return false
	}
	last := messages[len(messages)-1]
	return last.Sender == SenderUser && last.Content == content
}
