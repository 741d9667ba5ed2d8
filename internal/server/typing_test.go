package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypingTracker_StartStop(t *testing.T) {
	tr := NewTypingTracker()

	assert.Empty(t, tr.Typing("r1"))

	tr.Start("r1", "u1", "alice")
	tr.Start("r1", "u2", "bob")
	tr.Start("r1", "u1", "alice") // repeat start replaces, not duplicates

	assert.Equal(t, []TypingUser{
		{UserId: "u1", Username: "alice"},
		{UserId: "u2", Username: "bob"},
	}, tr.Typing("r1"))

	assert.True(t, tr.Stop("r1", "u1"))
	assert.False(t, tr.Stop("r1", "u1"), "expected repeated stop to be a no-op")
	assert.Equal(t, []TypingUser{{UserId: "u2", Username: "bob"}}, tr.Typing("r1"))
}

func TestTypingTracker_StopUnknownRoom(t *testing.T) {
	tr := NewTypingTracker()
	assert.False(t, tr.Stop("nope", "u1"))
}

func TestTypingTracker_ClearUser(t *testing.T) {
	tr := NewTypingTracker()

	tr.Start("r1", "u1", "alice")
	tr.Start("r2", "u1", "alice")
	tr.Start("r2", "u2", "bob")

	cleared := tr.ClearUser("u1")
	assert.ElementsMatch(t, []string{"r1", "r2"}, cleared)
	assert.Empty(t, tr.Typing("r1"))
	assert.Equal(t, []TypingUser{{UserId: "u2", Username: "bob"}}, tr.Typing("r2"))

	assert.Empty(t, tr.ClearUser("u1"), "expected nothing left to clear")
}
