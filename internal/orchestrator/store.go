package orchestrator

// Store holds sessions by id. The Registry serialises access; implementations
// need no locking of their own.
type Store interface {
	Get(id SessionID) (*Session, bool)
	Put(s *Session)
	Delete(id SessionID)
	List() []*Session
}

// InMemoryStore is a map-backed Store.
type InMemoryStore struct {
	sessions map[SessionID]*Session
}

// NewInMemoryStore returns an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[SessionID]*Session)}
}

func (s *InMemoryStore) Get(id SessionID) (*Session, bool) {
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *InMemoryStore) Put(sess *Session) {
	s.sessions[sess.ID] = sess
}

func (s *InMemoryStore) Delete(id SessionID) {
	delete(s.sessions, id)
}

func (s *InMemoryStore) List() []*Session {
	out := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}
