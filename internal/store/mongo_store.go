package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const messagesCollection = "messages"

type mongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore returns the document-store backend. ObjectIDs embed a
// timestamp plus a per-process counter, which keeps the cursor monotonic with
// insertion order.
func NewMongoStore(db *mongo.Database) IMessageStore {
	return &mongoStore{coll: db.Collection(messagesCollection)}
}

type mongoMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Room      string             `bson:"room"`
	Username  string             `bson:"username"`
	Content   string             `bson:"content"`
	Avatar    *string            `bson:"avatar,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (s *mongoStore) Insert(ctx context.Context, room, username, content string, avatar *string, createdAt time.Time) (string, error) {
	res, err := s.coll.InsertOne(ctx, mongoMessage{
		Room:      room,
		Username:  username,
		Content:   content,
		Avatar:    avatar,
		CreatedAt: createdAt.UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInsertFailed, err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("%w: unexpected inserted id %v", ErrInsertFailed, res.InsertedID)
	}
	return oid.Hex(), nil
}

func (s *mongoStore) ListBefore(ctx context.Context, room string, limit int, beforeID string) ([]Record, error) {
	filter := bson.M{"room": room}
	// An unparseable cursor is ignored rather than rejected.
	if oid, err := primitive.ObjectIDFromHex(beforeID); err == nil {
		filter["_id"] = bson.M{"$lt": oid}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	list := make([]Record, 0, limit)
	for cur.Next(ctx) {
		var doc mongoMessage
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		list = append(list, Record{
			ID:        doc.ID.Hex(),
			Room:      doc.Room,
			Username:  doc.Username,
			Content:   doc.Content,
			Avatar:    doc.Avatar,
			CreatedAt: doc.CreatedAt.UTC(),
		})
	}
	return list, cur.Err()
}
