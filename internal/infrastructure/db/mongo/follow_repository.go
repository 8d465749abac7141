package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/connectify/social-api/internal/core/domain"
	"github.com/connectify/social-api/internal/core/ports"
)

// FollowRepository keeps one document per directed edge. A unique
// (follower_id, following_id) index rejects duplicates.
type FollowRepository struct {
	coll *mongo.Collection
}

func NewFollowRepository(db *mongo.Database) *FollowRepository {
	return &FollowRepository{coll: db.Collection(collectionFollows)}
}

var _ ports.FollowRepository = (*FollowRepository)(nil)

type followDoc struct {
	FollowerID  string    `bson:"follower_id"`
	FollowingID string    `bson:"following_id"`
	CreatedAt   time.Time `bson:"created_at"`
}

func (r *FollowRepository) Add(ctx context.Context, f domain.Follow) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, followDoc{
		FollowerID:  f.FollowerID,
		FollowingID: f.FollowingID,
		CreatedAt:   f.CreatedAt,
	})
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("insert follow: %w", err)
	}
	return nil
}

func (r *FollowRepository) Remove(ctx context.Context, followerID, followingID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"follower_id": followerID, "following_id": followingID})
	if err != nil {
		return false, fmt.Errorf("delete follow: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *FollowRepository) Exists(ctx context.Context, followerID, followingID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, bson.M{"follower_id": followerID, "following_id": followingID})
	if err != nil {
		return false, fmt.Errorf("count follow: %w", err)
	}
	return n > 0, nil
}

func (r *FollowRepository) FollowingIDs(ctx context.Context, followerID string) ([]string, error) {
	return r.distinct(ctx, "following_id", bson.M{"follower_id": followerID})
}

func (r *FollowRepository) FollowerIDs(ctx context.Context, followingID string) ([]string, error) {
	return r.distinct(ctx, "follower_id", bson.M{"following_id": followingID})
}

func (r *FollowRepository) distinct(ctx context.Context, field string, filter bson.M) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	values, err := r.coll.Distinct(ctx, field, filter)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", field, err)
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *FollowRepository) CountFollowers(ctx context.Context, accountID string) (int64, error) {
	return r.count(ctx, bson.M{"following_id": accountID})
}

func (r *FollowRepository) CountFollowing(ctx context.Context, accountID string) (int64, error) {
	return r.count(ctx, bson.M{"follower_id": accountID})
}

func (r *FollowRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count follows: %w", err)
	}
	return n, nil
}

func (r *FollowRepository) DeleteByAccount(ctx context.Context, accountID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.coll.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"follower_id": accountID},
		bson.M{"following_id": accountID},
	}})
	if err != nil {
		return fmt.Errorf("delete follows: %w", err)
	}
	return nil
}
