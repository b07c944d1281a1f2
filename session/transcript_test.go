package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptEvictsOldest(t *testing.T) {
	tr := NewTranscript(3)

	tr.Append(RoleBot, "hello")
	tr.Append(RoleUser, "book a table")
	tr.Append(RoleBot, "which day?")
	tr.Append(RoleUser, "friday")

	entries := tr.Snapshot()
	require.Len(t, entries, 3)
	assert.Equal(t, "book a table", entries[0].Content)
	assert.Equal(t, RoleUser, entries[2].Role)
	assert.Equal(t, "friday", entries[2].Content)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
}

func TestTranscriptSnapshotIsCopy(t *testing.T) {
	tr := NewTranscript(5)
	tr.Append(RoleBot, "hello")

	entries := tr.Snapshot()
	entries[0].Content = "changed"

	assert.Equal(t, "hello", tr.Snapshot()[0].Content)
}

func TestTranscriptClear(t *testing.T) {
	tr := NewTranscript(0)
	assert.Equal(t, 1, tr.MaxEntries())

	tr.Append(RoleUser, "hi")
	tr.Append(RoleUser, "hello")
	assert.Equal(t, 1, tr.Len())

	tr.Clear()
	assert.Equal(t, 0, tr.Len())
	assert.Empty(t, tr.Snapshot())
}
