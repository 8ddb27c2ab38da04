package transcript

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrsingh-rishi/teahouse/types"
)

func TestInterimThenFinalYieldsOneEntry(t *testing.T) {
	log := NewLog()

	log.Apply(types.AuthorUser, "hel", false)
	log.Apply(types.AuthorUser, "hello", true)

	entries := log.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "hello", entries[0].Text)
	assert.True(t, entries[0].IsFinal)
	assert.Equal(t, types.AuthorUser, entries[0].Author)
}

func TestReplacementKeepsID(t *testing.T) {
	log := NewLog()

	first := log.Apply(types.AuthorModel, "Mar", false)
	second := log.Apply(types.AuthorModel, "Marhaba", false)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, log.Len())
}

func TestFinalEntryIsFrozen(t *testing.T) {
	log := NewLog()

	log.Apply(types.AuthorUser, "hello", true)
	log.Apply(types.AuthorUser, "again", false)

	entries := log.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "hello", entries[0].Text)
	assert.Equal(t, "again", entries[1].Text)
	assert.Less(t, entries[0].ID, entries[1].ID)
}

func TestInterleavedAuthorsKeepTurnOrder(t *testing.T) {
	log := NewLog()

	log.Apply(types.AuthorUser, "how", false)
	log.Apply(types.AuthorModel, "Wel", false)
	log.Apply(types.AuthorUser, "how are you", true)

	entries := log.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, []types.Author{types.AuthorUser, types.AuthorModel, types.AuthorUser},
		[]types.Author{entries[0].Author, entries[1].Author, entries[2].Author})
	// The user's interim is not at the tail any more, so it stays as it was.
	assert.Equal(t, "how", entries[0].Text)
	assert.False(t, entries[0].IsFinal)
}

func TestNoConsecutiveOpenEntriesForOneAuthor(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	authors := []types.Author{types.AuthorUser, types.AuthorModel}

	for run := 0; run < 200; run++ {
		log := NewLog()
		for i := 0; i < 50; i++ {
			log.Apply(authors[rng.Intn(2)], "x", rng.Intn(4) == 0)
		}

		entries := log.Entries()
		for i := 1; i < len(entries); i++ {
			prev, cur := entries[i-1], entries[i]
			if prev.Author == cur.Author && !prev.IsFinal {
				t.Fatalf("run %d: open entry %d followed by entry %d for the same author", run, prev.ID, cur.ID)
			}
		}
	}
}

func TestFinalize(t *testing.T) {
	log := NewLog()
	log.Apply(types.AuthorModel, "partial", false)

	_, ok := log.Finalize(types.AuthorUser)
	assert.False(t, ok)

	entry, ok := log.Finalize(types.AuthorModel)
	require.True(t, ok)
	assert.True(t, entry.IsFinal)

	_, ok = log.Finalize(types.AuthorModel)
	assert.False(t, ok)
}

func TestEntriesReturnsCopy(t *testing.T) {
	log := NewLog()
	log.Apply(types.AuthorUser, "a", true)

	entries := log.Entries()
	entries[0].Text = "mutated"

	assert.Equal(t, "a", log.Entries()[0].Text)
}

func TestResetKeepsIDsIncreasing(t *testing.T) {
	log := NewLog()
	first := log.Apply(types.AuthorUser, "a", true)
	log.Reset()
	second := log.Apply(types.AuthorUser, "b", true)

	assert.Equal(t, 1, log.Len())
	assert.Greater(t, second.ID, first.ID)
}
