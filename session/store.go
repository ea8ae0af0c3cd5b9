// Package session caches per-user conversation state between messages. A
// session is created lazily on the first message, initialized against the
// assistant API once, and evicted after an inactivity timeout, an explicit
// reset, or a failed initialization.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Rhuann-Nunes/jarvis-bot/assistant"
)

const (
	DefaultSweepInterval = 60 * time.Second
	DefaultTimeout       = 20 * time.Minute

	// Two entries per exchange, so 20 entries keep the last 10 exchanges.
	defaultHistoryMax = 20
)

// Session is the cached conversational state for one user. All fields are
// owned by the Store and must only be touched through its methods.
type Session struct {
	UserID      string
	DisplayName string

	// inflight serializes exchanges for this session so two overlapping
	// messages from the same user never converse against the same stale
	// history copy.
	inflight sync.Mutex

	history      []assistant.Message
	lastActivity time.Time
	initialized  bool
}

type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session

	client     assistant.Client
	logger     *slog.Logger
	historyMax int
	now        func() time.Time
}

type StoreOptions struct {
	Logger     *slog.Logger
	HistoryMax int
	Now        func() time.Time
}

func NewStore(client assistant.Client, opts StoreOptions) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	historyMax := opts.HistoryMax
	if historyMax <= 0 {
		historyMax = defaultHistoryMax
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		sessions:   make(map[string]*Session),
		client:     client,
		logger:     logger,
		historyMax: historyMax,
		now:        now,
	}
}

// GetOrCreate returns the live session for userID, creating an uninitialized
// one if none exists. Never blocks on external I/O.
func (s *Store) GetOrCreate(userID, displayName string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok {
		sess.lastActivity = s.now()
		return sess
	}
	sess := &Session{
		UserID:       userID,
		DisplayName:  displayName,
		lastActivity: s.now(),
	}
	s.sessions[userID] = sess
	s.logger.Debug("session_created", "user_id", userID)
	return sess
}

// EnsureInitialized performs the one-time external data load for a session.
// On failure the session is evicted so the next message starts clean instead
// of retrying against a half-initialized session.
func (s *Store) EnsureInitialized(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	sess.lastActivity = s.now()
	if sess.initialized {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if err := s.client.LoadUserData(ctx, sess.UserID, sess.DisplayName); err != nil {
		s.mu.Lock()
		if s.sessions[sess.UserID] == sess {
			delete(s.sessions, sess.UserID)
		}
		s.mu.Unlock()
		s.logger.Warn("session_init_failed", "user_id", sess.UserID, "error", err.Error())
		return err
	}

	s.mu.Lock()
	sess.initialized = true
	sess.lastActivity = s.now()
	s.mu.Unlock()
	return nil
}

// Exchange sends one user message through the assistant with the session's
// history and records both turns, keeping only the most recent entries. The
// activity timestamp is bumped before and after the external call so a slow
// exchange still counts as activity for the sweeper. Exchanges for the same
// session are serialized; exchanges for different users run concurrently.
func (s *Store) Exchange(ctx context.Context, sess *Session, userMessage string) (string, error) {
	sess.inflight.Lock()
	defer sess.inflight.Unlock()

	s.mu.Lock()
	sess.lastActivity = s.now()
	history := append([]assistant.Message(nil), sess.history...)
	s.mu.Unlock()

	reply, err := s.client.Converse(ctx, sess.UserID, sess.DisplayName, userMessage, history)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	sess.lastActivity = s.now()
	sess.history = append(sess.history,
		assistant.Message{Role: assistant.RoleUser, Content: userMessage},
		assistant.Message{Role: assistant.RoleAssistant, Content: reply},
	)
	if len(sess.history) > s.historyMax {
		sess.history = sess.history[len(sess.history)-s.historyMax:]
	}
	s.mu.Unlock()
	return reply, nil
}

// Reset evicts any session for userID. The next GetOrCreate starts fresh.
func (s *Store) Reset(userID string) {
	s.mu.Lock()
	_, existed := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()
	if existed {
		s.logger.Info("session_reset", "user_id", userID)
	}
}

// SweepExpired evicts every session inactive for longer than threshold and
// returns how many were removed.
func (s *Store) SweepExpired(now time.Time, threshold time.Duration) int {
	s.mu.Lock()
	evicted := 0
	for userID, sess := range s.sessions {
		if now.Sub(sess.lastActivity) > threshold {
			delete(s.sessions, userID)
			evicted++
			s.logger.Info("session_evicted",
				"user_id", userID,
				"last_activity", sess.lastActivity.UTC().Format(time.RFC3339),
			)
		}
	}
	remaining := len(s.sessions)
	s.mu.Unlock()
	if evicted > 0 {
		s.logger.Debug("session_sweep_done", "evicted", evicted, "active", remaining)
	}
	return evicted
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Initialized reports whether sess has completed its external data load.
func (s *Store) Initialized(sess *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sess.initialized
}

// History returns a copy of the session's conversation history.
func (s *Store) History(sess *Session) []assistant.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]assistant.Message(nil), sess.history...)
}

// Run sweeps expired sessions on a fixed interval until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval, threshold time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	if threshold <= 0 {
		threshold = DefaultTimeout
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.SweepExpired(now, threshold)
		}
	}
}
