package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/room4-2/lamaison/messages"
)

// Transcript roles
const (
	RoleBot  = "bot"
	RoleUser = "user"
)

// Transcript keeps the most recent lines of a conversation
type Transcript struct {
	entries    []messages.Entry
	maxEntries int
	now        func() time.Time
	mu         sync.Mutex
}

// NewTranscript creates a transcript holding at most maxEntries lines
func NewTranscript(maxEntries int) *Transcript {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Transcript{
		entries:    make([]messages.Entry, 0, maxEntries),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// MaxEntries returns the transcript capacity
func (t *Transcript) MaxEntries() int {
	return t.maxEntries
}

// Append records a line, evicting the oldest one when full
func (t *Transcript) Append(role, content string) messages.Entry {
	entry := messages.Entry{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: t.now(),
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.entries) == t.maxEntries {
		copy(t.entries, t.entries[1:])
		t.entries = t.entries[:len(t.entries)-1]
	}
	t.entries = append(t.entries, entry)
	return entry
}

// Snapshot returns a copy of the transcript, oldest first
func (t *Transcript) Snapshot() []messages.Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]messages.Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Clear empties the transcript
func (t *Transcript) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = t.entries[:0]
}

// Len returns the number of recorded lines
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
