package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/connectify/social-api/internal/core/domain"
	"github.com/connectify/social-api/internal/core/ports"
)

type MessageRepository struct {
	coll *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{coll: db.Collection(collectionMessages)}
}

var _ ports.MessageRepository = (*MessageRepository)(nil)

type messageDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	SenderID    string             `bson:"sender_id"`
	ReceiverID  string             `bson:"receiver_id"`
	Text        string             `bson:"text"`
	Read        bool               `bson:"read"`
	DeliveredAt *time.Time         `bson:"delivered_at,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"`
}

func (d *messageDoc) toDomain() *domain.Message {
	m := &domain.Message{
		ID:         d.ID.Hex(),
		SenderID:   d.SenderID,
		ReceiverID: d.ReceiverID,
		Text:       d.Text,
		Read:       d.Read,
		CreatedAt:  d.CreatedAt.UTC(),
	}
	if d.DeliveredAt != nil {
		at := d.DeliveredAt.UTC()
		m.DeliveredAt = &at
	}
	return m
}

func (r *MessageRepository) Create(ctx context.Context, msg *domain.Message) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := messageDoc{
		ID:          primitive.NewObjectID(),
		SenderID:    msg.SenderID,
		ReceiverID:  msg.ReceiverID,
		Text:        msg.Text,
		Read:        msg.Read,
		DeliveredAt: msg.DeliveredAt,
		CreatedAt:   msg.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MessageRepository) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	oid, err := objectID(id, domain.ErrMessageNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc messageDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("find message: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MessageRepository) Between(ctx context.Context, a, b string) ([]*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": a, "receiver_id": b},
		bson.M{"sender_id": b, "receiver_id": a},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	var docs []messageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	out := make([]*domain.Message, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func (r *MessageRepository) MarkDelivered(ctx context.Context, id string, at time.Time) error {
	oid, err := objectID(id, domain.ErrMessageNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": oid, "delivered_at": bson.M{"$exists": false}}
	if _, err := r.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"delivered_at": at}}); err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	return nil
}

// MarkRead also stamps delivered_at when the message skipped that state.
func (r *MessageRepository) MarkRead(ctx context.Context, id string) (*domain.Message, error) {
	oid, err := objectID(id, domain.ErrMessageNotFound)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "read", Value: true},
			{Key: "delivered_at", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$delivered_at", now}}}},
		}}},
	}
	var doc messageDoc
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, pipeline, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("mark read: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MessageRepository) MarkConversationRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"receiver_id": receiverID, "sender_id": senderID, "read": false}
	res, err := r.coll.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return 0, fmt.Errorf("mark conversation read: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id, domain.ErrMessageNotFound)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

// Conversations groups the account's messages by peer, keeping the newest
// message and the number of unread messages addressed to the account.
func (r *MessageRepository) Conversations(ctx context.Context, accountID string) ([]ports.ConversationSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"$or": bson.A{
			bson.M{"sender_id": accountID},
			bson.M{"receiver_id": accountID},
		}}}},
		{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$sender_id", accountID}}, "$receiver_id", "$sender_id",
			}}},
			{Key: "last", Value: bson.M{"$first": "$$ROOT"}},
			{Key: "unread", Value: bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$receiver_id", accountID}},
					bson.M{"$eq": bson.A{"$read", false}},
				}}, 1, 0,
			}}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "last.created_at", Value: -1}, {Key: "last._id", Value: -1}}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate conversations: %w", err)
	}
	var rows []struct {
		PeerID string     `bson:"_id"`
		Last   messageDoc `bson:"last"`
		Unread int64      `bson:"unread"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode conversations: %w", err)
	}

	out := make([]ports.ConversationSummary, 0, len(rows))
	for i := range rows {
		out = append(out, ports.ConversationSummary{
			PeerID:      rows[i].PeerID,
			LastMessage: rows[i].Last.toDomain(),
			Unread:      rows[i].Unread,
		})
	}
	return out, nil
}

func (r *MessageRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.coll.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"sender_id": accountID},
		bson.M{"receiver_id": accountID},
	}})
	if err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}
