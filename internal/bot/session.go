package bot

import "sync"

// stateKind enumerates the states of the per-chat conversation machine.
type stateKind int

const (
	stateIdle stateKind = iota
	// stateAwaitFilterKeyword waits for the plain-text keyword of a new
	// filter on conversation.subscriptionID.
	stateAwaitFilterKeyword
)

// conversation is the explicit context record carried across the steps of
// a multi-step flow, keyed by chat ID.
type conversation struct {
	state          stateKind
	subscriptionID int64
}

// sessions tracks in-flight conversations per chat.
type sessions struct {
	mu     sync.Mutex
	byChat map[int64]conversation
}

func newSessions() *sessions {
	return &sessions{byChat: make(map[int64]conversation)}
}

func (s *sessions) get(chatID int64) conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byChat[chatID]
}

func (s *sessions) set(chatID int64, c conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byChat[chatID] = c
}

func (s *sessions) clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byChat, chatID)
}
