package cache

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr        string
	Password    string
	PriceTTLSec int
}

// Client wraps the Redis connection used for the current-price response
// cache and the auth lookup cache.
type Client struct {
	rdb      *redis.Client
	priceTTL time.Duration
}

const usersHashKey = "users:auth"

func NewClient(cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           0,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := time.Duration(cfg.PriceTTLSec) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Client{rdb: rdb, priceTTL: ttl}, nil
}

func priceKey(eventID int64) string {
	return fmt.Sprintf("price:event:%d", eventID)
}

// GetCurrentPriceRaw returns the cached raw JSON body of the current-price
// endpoint, avoiding an unmarshal/marshal round trip on the hot read path.
func (c *Client) GetCurrentPriceRaw(ctx context.Context, eventID int64) ([]byte, error) {
	data, err := c.rdb.Get(ctx, priceKey(eventID)).Bytes()
	if err != nil {
		return nil, err
	}
	return data, nil
}

// SetCurrentPrice stores a current-price response under a short TTL. The TTL
// bounds staleness for readers; the purchase path never consults this cache.
func (c *Client) SetCurrentPrice(ctx context.Context, eventID int64, response interface{}) error {
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, priceKey(eventID), data, c.priceTTL).Err()
}

// InvalidateCurrentPrice drops the cached price after a tier mutation or a
// purchase that may have exhausted a tier.
func (c *Client) InvalidateCurrentPrice(ctx context.Context, eventID int64) error {
	return c.rdb.Del(ctx, priceKey(eventID)).Err()
}

// GetUserIDByAuth looks up a user id by email and password hash in the auth
// hash, sparing the database a lookup per request.
func (c *Client) GetUserIDByAuth(ctx context.Context, email, passwordHash string) (int64, error) {
	authString := fmt.Sprintf("%s:%s", email, passwordHash)
	cacheKey := base64.StdEncoding.EncodeToString([]byte(authString))

	userIDStr, err := c.rdb.HGet(ctx, usersHashKey, cacheKey).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, fmt.Errorf("user not found in cache")
		}
		return 0, fmt.Errorf("cache lookup error: %w", err)
	}

	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user ID in cache: %w", err)
	}

	return userID, nil
}

// StoreUserAuth caches a verified email/password-hash pair.
func (c *Client) StoreUserAuth(ctx context.Context, email, passwordHash string, userID int64) error {
	authString := fmt.Sprintf("%s:%s", email, passwordHash)
	cacheKey := base64.StdEncoding.EncodeToString([]byte(authString))
	return c.rdb.HSet(ctx, usersHashKey, cacheKey, strconv.FormatInt(userID, 10)).Err()
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
