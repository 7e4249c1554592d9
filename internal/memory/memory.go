// Package memory provides the conversation memory handles agents read their history from.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Message is a minimal persisted view of a chat turn.
type Message struct {
	Role string `json:"role"`
	Text string `json:"text,omitempty"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var ErrInvalidKey = errors.New("invalid memory key")

// Store keeps per-session conversation history for a single agent.
type Store interface {
	Load(ctx context.Context, key string) ([]Message, error)
	Append(ctx context.Context, key string, msgs ...Message) error
	Clear(ctx context.Context, key string) error
}

// InMemory keeps history in process memory.
type InMemory struct {
	mu    sync.RWMutex
	items map[string][]Message
}

// NewInMemory returns an empty in-process store.
func NewInMemory() *InMemory {
	return &InMemory{items: make(map[string][]Message)}
}

func (m *InMemory) Load(_ context.Context, key string) ([]Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.items[key]
	if len(msgs) == 0 {
		return nil, nil
	}
	return append([]Message(nil), msgs...), nil
}

func (m *InMemory) Append(_ context.Context, key string, msgs ...Message) error {
	m.mu.Lock()
	m.items[key] = append(m.items[key], msgs...)
	m.mu.Unlock()
	return nil
}

func (m *InMemory) Clear(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
	return nil
}

// FileStore persists each session's history as a JSON file under dir.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create memory dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) Load(_ context.Context, key string) ([]Message, error) {
	path, err := f.path(key)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return LoadConversation(path)
}

func (f *FileStore) Append(_ context.Context, key string, msgs ...Message) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	existing, err := LoadConversation(path)
	if err != nil {
		return err
	}
	return SaveConversation(path, append(existing, msgs...))
}

func (f *FileStore) Clear(_ context.Context, key string) error {
	path, err := f.path(key)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (f *FileStore) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}

// LoadConversation reads a conversation file. A missing file yields a nil slice.
func LoadConversation(path string) ([]Message, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var msgs []Message
	if err := json.Unmarshal(b, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SaveConversation writes msgs as indented JSON.
func SaveConversation(path string, msgs []Message) error {
	b, err := json.MarshalIndent(msgs, "", " ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

// Factory hands out one Store per agent.
type Factory func(agentID string) (Store, error)

// InMemoryFactory gives every agent its own in-process store.
func InMemoryFactory() Factory {
	return func(string) (Store, error) {
		return NewInMemory(), nil
	}
}

// FileFactory gives every agent its own directory under root.
func FileFactory(root string) Factory {
	return func(agentID string) (Store, error) {
		return NewFileStore(filepath.Join(root, agentID))
	}
}
