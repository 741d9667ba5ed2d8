package types

import (
	"time"
)

type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeFile   MessageType = "file"
	MessageTypeEmoji  MessageType = "emoji"
	MessageTypeSystem MessageType = "system"
)

type User struct {
	Id       string     `json:"id" bson:"_id,omitempty"`
	Username string     `json:"username" bson:"username"`
	Avatar   string     `json:"avatar,omitempty" bson:"avatar,omitempty"`
	IsOnline bool       `json:"is_online" bson:"isOnline"`
	LastSeen *time.Time `json:"last_seen,omitempty" bson:"lastSeen,omitempty"`
}

type RoomType string

const (
	RoomTypeDirect RoomType = "direct"
	RoomTypeGroup  RoomType = "group"
)

type Room struct {
	Id            string    `json:"id" bson:"_id,omitempty"`
	Name          string    `json:"name,omitempty" bson:"name,omitempty"`
	Type          RoomType  `json:"type" bson:"type"`
	Members       []string  `json:"members" bson:"members"`
	Admins        []string  `json:"admins,omitempty" bson:"admins,omitempty"`
	LastMessageId string    `json:"last_message_id,omitempty" bson:"lastMessage,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty" bson:"updatedAt,omitempty"`
}

type Reaction struct {
	Emoji  string `json:"emoji" bson:"emoji"`
	UserId string `json:"userId" bson:"userId"`
}

// Reply is a point-in-time snapshot of the message being replied to.
// It is never updated if the original message changes.
type Reply struct {
	MessageId      string `json:"messageId" bson:"messageId"`
	Content        string `json:"content" bson:"content"`
	SenderUsername string `json:"senderUsername" bson:"senderUsername"`
}

type Forward struct {
	OriginalMessageId string `json:"originalMessageId" bson:"originalMessageId"`
	OriginalSenderId  string `json:"originalSenderId" bson:"originalSenderId"`
}

type Mention struct {
	UserId   string `json:"userId" bson:"userId"`
	Username string `json:"username" bson:"username"`
}

type Message struct {
	Id                 string      `json:"_id" bson:"_id,omitempty"`
	RoomId             string      `json:"roomId" bson:"room"`
	SenderId           string      `json:"senderId" bson:"sender"`
	SenderUsername     string      `json:"senderUsername,omitempty" bson:"senderUsername,omitempty"`
	Content            string      `json:"content" bson:"content"`
	Type               MessageType `json:"type" bson:"type"`
	ReadBy             []string    `json:"readBy" bson:"readBy"`
	DeliveredTo        []string    `json:"deliveredTo" bson:"deliveredTo"`
	Reactions          []Reaction  `json:"reactions" bson:"reactions"`
	Reply              *Reply      `json:"reply,omitempty" bson:"reply,omitempty"`
	Forward            *Forward    `json:"forward,omitempty" bson:"forward,omitempty"`
	Mentions           []Mention   `json:"mentions,omitempty" bson:"mentions,omitempty"`
	Edited             bool        `json:"edited" bson:"edited"`
	EditedAt           *time.Time  `json:"editedAt,omitempty" bson:"editedAt,omitempty"`
	DeletedFor         []string    `json:"deletedFor" bson:"deletedFor"`
	DeletedForEveryone bool        `json:"deletedForEveryone" bson:"deletedForEveryone"`
	CreatedAt          time.Time   `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt" bson:"updatedAt"`
}

// RoomReadStatus records the last time a user marked a room read, one
// row per (user, room) pair. Unread counts are computed against it
// instead of scanning message history.
type RoomReadStatus struct {
	UserId     string    `json:"user_id" bson:"userId"`
	RoomId     string    `json:"room_id" bson:"roomId"`
	LastReadAt time.Time `json:"last_read_at" bson:"lastReadAt"`
}
