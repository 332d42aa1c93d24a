package orchestrator

import (
	"testing"
)

func TestInMemoryStore_GetPut(t *testing.T) {
	store := NewInMemoryStore()

	if _, ok := store.Get("s1"); ok {
		t.Error("expected not found for empty store")
	}

	sess := &Session{ID: "s1"}
	store.Put(sess)

	got, ok := store.Get("s1")
	if !ok || got != sess {
		t.Errorf("Get: ok=%v, got %p want %p", ok, got, sess)
	}
}

func TestInMemoryStore_Put_replaces(t *testing.T) {
	store := NewInMemoryStore()
	s1 := &Session{ID: "s1"}
	s2 := &Session{ID: "s1"}
	store.Put(s1)
	store.Put(s2)

	got, _ := store.Get("s1")
	if got != s2 {
		t.Errorf("Put should replace: got %p want %p", got, s2)
	}
	if n := len(store.List()); n != 1 {
		t.Errorf("List: got %d sessions, want 1", n)
	}
}

func TestInMemoryStore_Delete(t *testing.T) {
	store := NewInMemoryStore()
	store.Put(&Session{ID: "s1"})
	store.Put(&Session{ID: "s2"})

	store.Delete("s1")
	store.Delete("missing")

	if _, ok := store.Get("s1"); ok {
		t.Error("s1 should be gone")
	}
	if n := len(store.List()); n != 1 {
		t.Errorf("List: got %d sessions, want 1", n)
	}
}
