package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"plangate/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type CacheService interface {
	// Subscription snapshot caching (hot path: the access middleware)
	GetSubscription(ctx context.Context, orgID uuid.UUID) (*models.Subscription, error)
	SetSubscription(ctx context.Context, sub *models.Subscription, ttl time.Duration) error
	DeleteSubscription(ctx context.Context, orgID uuid.UUID) error

	// Quota snapshot caching
	GetQuota(ctx context.Context, orgID uuid.UUID) (*models.QuotaDetails, error)
	SetQuota(ctx context.Context, orgID uuid.UUID, quota *models.QuotaDetails, ttl time.Duration) error
	DeleteQuota(ctx context.Context, orgID uuid.UUID) error

	// Plan catalog caching
	GetPlan(ctx context.Context, planID uuid.UUID) (*models.Plan, error)
	SetPlan(ctx context.Context, plan *models.Plan, ttl time.Duration) error
	DeletePlan(ctx context.Context, planID uuid.UUID) error

	// Cache invalidation
	InvalidateOrganizationCache(ctx context.Context, orgID uuid.UUID) error

	// Rate limiting
	IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	IncrementRateLimit(ctx context.Context, key string, window time.Duration) error

	// Generic string operations for token management
	SetString(ctx context.Context, key string, value string, ttl time.Duration) error
	GetString(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

type redisCacheService struct {
	client *redis.Client
}

func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func subscriptionKey(orgID uuid.UUID) string {
	return fmt.Sprintf("plangate:subscription:%s", orgID.String())
}

func quotaKey(orgID uuid.UUID) string {
	return fmt.Sprintf("plangate:quota:%s", orgID.String())
}

func planKey(planID uuid.UUID) string {
	return fmt.Sprintf("plangate:plan:%s", planID.String())
}

func (r *redisCacheService) GetSubscription(ctx context.Context, orgID uuid.UUID) (*models.Subscription, error) {
	data, err := r.client.Get(ctx, subscriptionKey(orgID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var sub models.Subscription
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *redisCacheService) SetSubscription(ctx context.Context, sub *models.Subscription, ttl time.Duration) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, subscriptionKey(sub.OrganizationID), data, ttl).Err()
}

func (r *redisCacheService) DeleteSubscription(ctx context.Context, orgID uuid.UUID) error {
	return r.client.Del(ctx, subscriptionKey(orgID)).Err()
}

func (r *redisCacheService) GetQuota(ctx context.Context, orgID uuid.UUID) (*models.QuotaDetails, error) {
	data, err := r.client.Get(ctx, quotaKey(orgID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var quota models.QuotaDetails
	if err := json.Unmarshal(data, &quota); err != nil {
		return nil, err
	}
	return &quota, nil
}

func (r *redisCacheService) SetQuota(ctx context.Context, orgID uuid.UUID, quota *models.QuotaDetails, ttl time.Duration) error {
	data, err := json.Marshal(quota)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, quotaKey(orgID), data, ttl).Err()
}

func (r *redisCacheService) DeleteQuota(ctx context.Context, orgID uuid.UUID) error {
	return r.client.Del(ctx, quotaKey(orgID)).Err()
}

func (r *redisCacheService) GetPlan(ctx context.Context, planID uuid.UUID) (*models.Plan, error) {
	data, err := r.client.Get(ctx, planKey(planID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var plan models.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *redisCacheService) SetPlan(ctx context.Context, plan *models.Plan, ttl time.Duration) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, planKey(plan.ID), data, ttl).Err()
}

func (r *redisCacheService) DeletePlan(ctx context.Context, planID uuid.UUID) error {
	return r.client.Del(ctx, planKey(planID)).Err()
}

// InvalidateOrganizationCache drops everything cached for one organization.
// Called after upgrade completion and membership mutations.
func (r *redisCacheService) InvalidateOrganizationCache(ctx context.Context, orgID uuid.UUID) error {
	return r.client.Del(ctx, subscriptionKey(orgID), quotaKey(orgID)).Err()
}

func (r *redisCacheService) IsRateLimited(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	count, err := r.client.Get(ctx, "plangate:ratelimit:"+key).Int()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	return count >= limit, nil
}

func (r *redisCacheService) IncrementRateLimit(ctx context.Context, key string, window time.Duration) error {
	fullKey := "plangate:ratelimit:" + key
	pipe := r.client.TxPipeline()
	pipe.Incr(ctx, fullKey)
	pipe.Expire(ctx, fullKey, window)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *redisCacheService) SetString(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, "plangate:"+key, value, ttl).Err()
}

func (r *redisCacheService) GetString(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, "plangate:"+key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", err
	}
	return val, nil
}

func (r *redisCacheService) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, "plangate:"+key).Err()
}
