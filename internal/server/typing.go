package server

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// TypingUser is one entry in a room's ephemeral typing set.
type TypingUser struct {
	UserId   string `json:"userId"`
	Username string `json:"username"`
}

// TypingTracker holds the per-room set of currently-typing users.
// Entries are driven purely by client signals and never persisted. An
// entry clears on an explicit stop or when the user's last session
// disconnects.
type TypingTracker struct {
	mu    sync.Mutex
	rooms map[string]map[string]string // roomId -> userId -> username
}

func NewTypingTracker() *TypingTracker {
	return &TypingTracker{
		rooms: make(map[string]map[string]string),
	}
}

// Start records userId as typing in roomId, replacing any stale entry
// for the same user.
func (t *TypingTracker) Start(roomId, userId, username string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	room, ok := t.rooms[roomId]
	if !ok {
		room = make(map[string]string)
		t.rooms[roomId] = room
	}
	room[userId] = username
}

// Stop removes userId's typing entry from roomId, reporting whether an
// entry existed.
func (t *TypingTracker) Stop(roomId, userId string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	room, ok := t.rooms[roomId]
	if !ok {
		return false
	}

	if _, ok := room[userId]; !ok {
		return false
	}

	delete(room, userId)
	if len(room) == 0 {
		delete(t.rooms, roomId)
	}
	return true
}

// Typing returns a stable snapshot of the users typing in roomId.
func (t *TypingTracker) Typing(roomId string) []TypingUser {
	t.mu.Lock()
	defer t.mu.Unlock()

	users := lo.MapToSlice(t.rooms[roomId], func(userId, username string) TypingUser {
		return TypingUser{UserId: userId, Username: username}
	})
	sort.Slice(users, func(i, j int) bool { return users[i].UserId < users[j].UserId })
	return users
}

// ClearUser drops userId's typing entries across all rooms and returns
// the ids of the rooms that were affected. Called when the user's last
// session disconnects, so other members don't see a stale indicator.
func (t *TypingTracker) ClearUser(userId string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var cleared []string
	for roomId, room := range t.rooms {
		if _, ok := room[userId]; ok {
			delete(room, userId)
			if len(room) == 0 {
				delete(t.rooms, roomId)
			}
			cleared = append(cleared, roomId)
		}
	}
	return cleared
}
