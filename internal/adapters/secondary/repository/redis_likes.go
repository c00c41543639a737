package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisLikeRepo stocke les likes d'un post dans un SET Redis.
// SADD/SREM donnent la machine à deux états {liked, not-liked} gratuitement :
// liker deux fois ou retirer un like absent sont des no-ops, pas des erreurs.
type RedisLikeRepo struct {
	client *redis.Client
}

func NewRedisLikeRepo(client *redis.Client) *RedisLikeRepo {
	return &RedisLikeRepo{client: client}
}

// Format de la clé : "post:likes:<post-uuid>"
func likeKey(postID string) string {
	return fmt.Sprintf("post:likes:%s", postID)
}

func (r *RedisLikeRepo) Add(ctx context.Context, postID, userID string) error {
	if err := r.client.SAdd(ctx, likeKey(postID), userID).Err(); err != nil {
		return fmt.Errorf("redis: sadd like: %w", err)
	}
	return nil
}

func (r *RedisLikeRepo) Remove(ctx context.Context, postID, userID string) error {
	if err := r.client.SRem(ctx, likeKey(postID), userID).Err(); err != nil {
		return fmt.Errorf("redis: srem like: %w", err)
	}
	return nil
}

func (r *RedisLikeRepo) Count(ctx context.Context, postID string) (int64, error) {
	count, err := r.client.SCard(ctx, likeKey(postID)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: scard likes: %w", err)
	}
	return count, nil
}

func (r *RedisLikeRepo) Contains(ctx context.Context, postID, userID string) (bool, error) {
	ok, err := r.client.SIsMember(ctx, likeKey(postID), userID).Result()
	if err != nil {
		return false, fmt.Errorf("redis: sismember likes: %w", err)
	}
	return ok, nil
}
