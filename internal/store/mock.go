package store

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/tmalloy/chatrelay/internal/types"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateMessage(ctx context.Context, params CreateMessageParams) (types.Message, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(types.Message), args.Error(1)
}

func (m *MockStore) GetMessage(ctx context.Context, messageId string) (types.Message, error) {
	args := m.Called(ctx, messageId)
	return args.Get(0).(types.Message), args.Error(1)
}

func (m *MockStore) AddRoomMessagesRead(ctx context.Context, roomId, userId string) error {
	args := m.Called(ctx, roomId, userId)
	return args.Error(0)
}

func (m *MockStore) AddRoomMessagesDelivered(ctx context.Context, roomId, userId string) error {
	args := m.Called(ctx, roomId, userId)
	return args.Error(0)
}

func (m *MockStore) UpdateMessageContent(ctx context.Context, messageId, content string, editedAt time.Time) (types.Message, error) {
	args := m.Called(ctx, messageId, content, editedAt)
	return args.Get(0).(types.Message), args.Error(1)
}

func (m *MockStore) MarkDeletedForEveryone(ctx context.Context, messageId, placeholder string) (types.Message, error) {
	args := m.Called(ctx, messageId, placeholder)
	return args.Get(0).(types.Message), args.Error(1)
}

func (m *MockStore) AddDeletedFor(ctx context.Context, messageId, userId string) error {
	args := m.Called(ctx, messageId, userId)
	return args.Error(0)
}

func (m *MockStore) SetReaction(ctx context.Context, messageId, userId, emoji string) (types.Message, error) {
	args := m.Called(ctx, messageId, userId, emoji)
	return args.Get(0).(types.Message), args.Error(1)
}

func (m *MockStore) RemoveReaction(ctx context.Context, messageId, userId string) (types.Message, error) {
	args := m.Called(ctx, messageId, userId)
	return args.Get(0).(types.Message), args.Error(1)
}

func (m *MockStore) IsRoomMember(ctx context.Context, roomId, userId string) (bool, error) {
	args := m.Called(ctx, roomId, userId)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) TouchRoomLastMessage(ctx context.Context, roomId, messageId string, at time.Time) error {
	args := m.Called(ctx, roomId, messageId, at)
	return args.Error(0)
}

func (m *MockStore) SetUserOnline(ctx context.Context, userId string, online bool, lastSeen *time.Time) error {
	args := m.Called(ctx, userId, online, lastSeen)
	return args.Error(0)
}

func (m *MockStore) UpsertRoomReadStatus(ctx context.Context, userId, roomId string, lastReadAt time.Time) error {
	args := m.Called(ctx, userId, roomId, lastReadAt)
	return args.Error(0)
}

func (m *MockStore) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
