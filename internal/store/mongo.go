package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tmalloy/chatrelay/internal/types"
)

const (
	messagesCollection   = "messages"
	roomsCollection      = "rooms"
	usersCollection      = "users"
	readStatusCollection = "room_read_status"

	connectTimeout = 10 * time.Second
)

type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	s := &MongoStore{
		client: client,
		db:     client.Database(database),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(messagesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "room", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "room", Value: 1}, {Key: "sender", Value: 1}}},
	})
	if err != nil {
		return err
	}

	_, err = s.db.Collection(readStatusCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "roomId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// messageDoc is the persisted shape of a message. Ids are stored as
// ObjectIDs and converted to hex at the package boundary.
type messageDoc struct {
	Id                 primitive.ObjectID `bson:"_id,omitempty"`
	Room               string             `bson:"room"`
	Sender             string             `bson:"sender"`
	SenderUsername     string             `bson:"senderUsername,omitempty"`
	Content            string             `bson:"content"`
	Type               types.MessageType  `bson:"type"`
	ReadBy             []string           `bson:"readBy"`
	DeliveredTo        []string           `bson:"deliveredTo"`
	Reactions          []types.Reaction   `bson:"reactions"`
	Reply              *types.Reply       `bson:"reply,omitempty"`
	Forward            *types.Forward     `bson:"forward,omitempty"`
	Mentions           []types.Mention    `bson:"mentions,omitempty"`
	Edited             bool               `bson:"edited"`
	EditedAt           *time.Time         `bson:"editedAt,omitempty"`
	DeletedFor         []string           `bson:"deletedFor"`
	DeletedForEveryone bool               `bson:"deletedForEveryone"`
	CreatedAt          time.Time          `bson:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt"`
}

func (d messageDoc) toMessage() types.Message {
	return types.Message{
		Id:                 d.Id.Hex(),
		RoomId:             d.Room,
		SenderId:           d.Sender,
		SenderUsername:     d.SenderUsername,
		Content:            d.Content,
		Type:               d.Type,
		ReadBy:             d.ReadBy,
		DeliveredTo:        d.DeliveredTo,
		Reactions:          d.Reactions,
		Reply:              d.Reply,
		Forward:            d.Forward,
		Mentions:           d.Mentions,
		Edited:             d.Edited,
		EditedAt:           d.EditedAt,
		DeletedFor:         d.DeletedFor,
		DeletedForEveryone: d.DeletedForEveryone,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

func messageObjectId(messageId string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(messageId)
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

func (s *MongoStore) CreateMessage(ctx context.Context, params CreateMessageParams) (types.Message, error) {
	now := time.Now().UTC()
	doc := messageDoc{
		Room:           params.RoomId,
		Sender:         params.SenderId,
		SenderUsername: params.SenderUsername,
		Content:        params.Content,
		Type:           params.Type,
		ReadBy:         []string{params.SenderId},
		DeliveredTo:    []string{},
		Reactions:      []types.Reaction{},
		Reply:          params.Reply,
		Forward:        params.Forward,
		Mentions:       params.Mentions,
		DeletedFor:     []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	res, err := s.db.Collection(messagesCollection).InsertOne(ctx, doc)
	if err != nil {
		return types.Message{}, fmt.Errorf("insert message: %w", err)
	}

	doc.Id = res.InsertedID.(primitive.ObjectID)
	return doc.toMessage(), nil
}

func (s *MongoStore) GetMessage(ctx context.Context, messageId string) (types.Message, error) {
	oid, err := messageObjectId(messageId)
	if err != nil {
		return types.Message{}, err
	}

	var doc messageDoc
	err = s.db.Collection(messagesCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Message{}, ErrNotFound
	}
	if err != nil {
		return types.Message{}, fmt.Errorf("find message: %w", err)
	}

	return doc.toMessage(), nil
}

func (s *MongoStore) AddRoomMessagesRead(ctx context.Context, roomId, userId string) error {
	_, err := s.db.Collection(messagesCollection).UpdateMany(ctx,
		bson.M{"room": roomId, "readBy": bson.M{"$ne": userId}},
		bson.M{"$addToSet": bson.M{"readBy": userId}},
	)
	if err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	return nil
}

func (s *MongoStore) AddRoomMessagesDelivered(ctx context.Context, roomId, userId string) error {
	_, err := s.db.Collection(messagesCollection).UpdateMany(ctx,
		bson.M{"room": roomId, "deliveredTo": bson.M{"$ne": userId}},
		bson.M{"$addToSet": bson.M{"deliveredTo": userId}},
	)
	if err != nil {
		return fmt.Errorf("mark messages delivered: %w", err)
	}
	return nil
}

func (s *MongoStore) UpdateMessageContent(ctx context.Context, messageId, content string, editedAt time.Time) (types.Message, error) {
	oid, err := messageObjectId(messageId)
	if err != nil {
		return types.Message{}, err
	}

	var doc messageDoc
	err = s.db.Collection(messagesCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"content":   content,
			"edited":    true,
			"editedAt":  editedAt,
			"updatedAt": editedAt,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Message{}, ErrNotFound
	}
	if err != nil {
		return types.Message{}, fmt.Errorf("update message content: %w", err)
	}

	return doc.toMessage(), nil
}

func (s *MongoStore) MarkDeletedForEveryone(ctx context.Context, messageId, placeholder string) (types.Message, error) {
	oid, err := messageObjectId(messageId)
	if err != nil {
		return types.Message{}, err
	}

	var doc messageDoc
	err = s.db.Collection(messagesCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{
			"deletedForEveryone": true,
			"content":            placeholder,
			"updatedAt":          time.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Message{}, ErrNotFound
	}
	if err != nil {
		return types.Message{}, fmt.Errorf("mark deleted for everyone: %w", err)
	}

	return doc.toMessage(), nil
}

func (s *MongoStore) AddDeletedFor(ctx context.Context, messageId, userId string) error {
	oid, err := messageObjectId(messageId)
	if err != nil {
		return err
	}

	res, err := s.db.Collection(messagesCollection).UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$addToSet": bson.M{"deletedFor": userId}},
	)
	if err != nil {
		return fmt.Errorf("add deletedFor: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) SetReaction(ctx context.Context, messageId, userId, emoji string) (types.Message, error) {
	oid, err := messageObjectId(messageId)
	if err != nil {
		return types.Message{}, err
	}

	coll := s.db.Collection(messagesCollection)

	// Replace an existing reaction from this user in place; fall back to
	// appending when none matched. Both legs are single-document atomic
	// updates, so concurrent reactors cannot corrupt the list.
	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": oid, "reactions.userId": userId},
		bson.M{"$set": bson.M{"reactions.$.emoji": emoji}},
	)
	if err != nil {
		return types.Message{}, fmt.Errorf("replace reaction: %w", err)
	}

	if res.MatchedCount == 0 {
		res, err = coll.UpdateOne(ctx,
			bson.M{"_id": oid},
			bson.M{"$push": bson.M{"reactions": types.Reaction{Emoji: emoji, UserId: userId}}},
		)
		if err != nil {
			return types.Message{}, fmt.Errorf("append reaction: %w", err)
		}
		if res.MatchedCount == 0 {
			return types.Message{}, ErrNotFound
		}
	}

	return s.GetMessage(ctx, messageId)
}

func (s *MongoStore) RemoveReaction(ctx context.Context, messageId, userId string) (types.Message, error) {
	oid, err := messageObjectId(messageId)
	if err != nil {
		return types.Message{}, err
	}

	res, err := s.db.Collection(messagesCollection).UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$pull": bson.M{"reactions": bson.M{"userId": userId}}},
	)
	if err != nil {
		return types.Message{}, fmt.Errorf("remove reaction: %w", err)
	}
	if res.MatchedCount == 0 {
		return types.Message{}, ErrNotFound
	}

	return s.GetMessage(ctx, messageId)
}

func (s *MongoStore) IsRoomMember(ctx context.Context, roomId, userId string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(roomId)
	if err != nil {
		return false, nil
	}

	count, err := s.db.Collection(roomsCollection).CountDocuments(ctx,
		bson.M{"_id": oid, "members": userId},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}

	return count > 0, nil
}

func (s *MongoStore) TouchRoomLastMessage(ctx context.Context, roomId, messageId string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(roomId)
	if err != nil {
		return ErrNotFound
	}

	_, err = s.db.Collection(roomsCollection).UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"lastMessage": messageId, "updatedAt": at}},
	)
	if err != nil {
		return fmt.Errorf("touch room: %w", err)
	}
	return nil
}

func (s *MongoStore) SetUserOnline(ctx context.Context, userId string, online bool, lastSeen *time.Time) error {
	oid, err := primitive.ObjectIDFromHex(userId)
	if err != nil {
		return ErrNotFound
	}

	set := bson.M{"isOnline": online}
	if lastSeen != nil {
		set["lastSeen"] = *lastSeen
	}

	_, err = s.db.Collection(usersCollection).UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("set user online: %w", err)
	}
	return nil
}

func (s *MongoStore) UpsertRoomReadStatus(ctx context.Context, userId, roomId string, lastReadAt time.Time) error {
	_, err := s.db.Collection(readStatusCollection).UpdateOne(ctx,
		bson.M{"userId": userId, "roomId": roomId},
		bson.M{"$set": bson.M{"lastReadAt": lastReadAt}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert read status: %w", err)
	}
	return nil
}
