package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mkryuchkov/socnet/models"
	"github.com/mkryuchkov/socnet/utils"
)

const cacheOpTimeout = 2 * time.Second

// ActionCache is the optional reaction-membership cache: one set of serialized
// PostAction records per (post, action kind) key. It is a disposable
// projection of the store, never authoritative.
type ActionCache interface {
	// Contains reports whether the key for (post, kind) exists at all. A
	// missing key means the kind has never been filled and the caller must
	// fall back to the store.
	Contains(ctx context.Context, postID string, kind models.ActionKind) (bool, error)
	// Members returns the cached reactions for (post, kind).
	Members(ctx context.Context, postID string, kind models.ActionKind) ([]models.PostAction, error)
	// Add inserts one reaction into its key's set.
	Add(ctx context.Context, act models.PostAction) error
	// Remove deletes one reaction from its key's set; removing an absent
	// member is not an error.
	Remove(ctx context.Context, act models.PostAction) error
	// Fill replaces the key for (post, kind) with the given full result set.
	Fill(ctx context.Context, postID string, kind models.ActionKind, acts []models.PostAction) error
}

// NewActionCache probes the Redis connection once and returns the cache port,
// or nil when Redis is unreachable. The decision is made exactly once; callers
// holding a nil cache run store-only for their whole lifetime.
func NewActionCache(rdb *redis.Client) ActionCache {
	if rdb == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Warnf("reaction cache disabled, redis unreachable: %v", err)
		}
		return nil
	}
	return &redisActionCache{rdb: rdb}
}

type redisActionCache struct {
	rdb *redis.Client
}

func actionKey(postID string, kind models.ActionKind) string {
	return "actions:" + postID + ":" + string(kind)
}

// cachedAction is the wire form of a set member. Serialization must be
// deterministic so that Remove can reconstruct the exact member bytes.
type cachedAction struct {
	UserID string            `json:"user_id"`
	PostID string            `json:"post_id"`
	Action models.ActionKind `json:"action"`
}

func encodeAction(act models.PostAction) (string, error) {
	b, err := json.Marshal(cachedAction{UserID: act.UserID, PostID: act.PostID, Action: act.Action})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *redisActionCache) Contains(ctx context.Context, postID string, kind models.ActionKind) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	n, err := c.rdb.Exists(ctx, actionKey(postID, kind)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *redisActionCache) Members(ctx context.Context, postID string, kind models.ActionKind) ([]models.PostAction, error) {
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	raw, err := c.rdb.SMembers(ctx, actionKey(postID, kind)).Result()
	if err != nil {
		return nil, err
	}
	acts := make([]models.PostAction, 0, len(raw))
	for _, m := range raw {
		var ca cachedAction
		if err := json.Unmarshal([]byte(m), &ca); err != nil {
			return nil, err
		}
		acts = append(acts, models.PostAction{UserID: ca.UserID, PostID: ca.PostID, Action: ca.Action})
	}
	return acts, nil
}

func (c *redisActionCache) Add(ctx context.Context, act models.PostAction) error {
	member, err := encodeAction(act)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	return c.rdb.SAdd(ctx, actionKey(act.PostID, act.Action), member).Err()
}

func (c *redisActionCache) Remove(ctx context.Context, act models.PostAction) error {
	member, err := encodeAction(act)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	return c.rdb.SRem(ctx, actionKey(act.PostID, act.Action), member).Err()
}

func (c *redisActionCache) Fill(ctx context.Context, postID string, kind models.ActionKind, acts []models.PostAction) error {
	members := make([]interface{}, 0, len(acts))
	for _, act := range acts {
		m, err := encodeAction(act)
		if err != nil {
			return err
		}
		members = append(members, m)
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()
	key := actionKey(postID, kind)
	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, key)
	if len(members) > 0 {
		pipe.SAdd(ctx, key, members...)
	}
	_, err := pipe.Exec(ctx)
	return err
}
