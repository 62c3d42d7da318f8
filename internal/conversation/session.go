package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// State is the step a client's conversation is at.
type State string

const (
	StateMainMenu         State = "MAIN_MENU"
	StateWaitingForReason State = "WAITING_FOR_REASON"
	StateOfferDecision    State = "OFFER_DECISION"
)

// Session is the per-user conversation state.
type Session struct {
	State      State  `json:"state"`
	ContractID string `json:"contract_id,omitempty"`
	CaseID     int64  `json:"case_id,omitempty"`
}

// MainMenu is the initial session.
func MainMenu() Session {
	return Session{State: StateMainMenu}
}

// SessionStore persists sessions keyed by user id. Load returns MainMenu
// for users without a stored session.
type SessionStore interface {
	Load(ctx context.Context, userID int64) (Session, error)
	Save(ctx context.Context, userID int64, session Session) error
}

// MemorySessionStore keeps sessions in process memory.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[int64]Session
}

// NewMemorySessionStore returns an empty store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[int64]Session)}
}

func (s *MemorySessionStore) Load(_ context.Context, userID int64) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[userID]; ok {
		return session, nil
	}
	return MainMenu(), nil
}

func (s *MemorySessionStore) Save(_ context.Context, userID int64, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session.State == StateMainMenu {
		delete(s.sessions, userID)
		return nil
	}
	s.sessions[userID] = session
	return nil
}

// RedisSessionStore keeps sessions as JSON values in Redis so several
// service instances share them.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSessionStore returns a Redis-backed store. A zero ttl keeps
// sessions until the user finishes the flow.
func NewRedisSessionStore(client *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, prefix: "retention:session:", ttl: ttl}
}

func (s *RedisSessionStore) key(userID int64) string {
	return s.prefix + strconv.FormatInt(userID, 10)
}

func (s *RedisSessionStore) Load(ctx context.Context, userID int64) (Session, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return MainMenu(), nil
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return MainMenu(), nil
	}
	return session, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, userID int64, session Session) error {
	if session.State == StateMainMenu {
		if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
			return fmt.Errorf("reset session: %w", err)
		}
		return nil
	}
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
