package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Claimer grants one holder at a time per key until release or ttl expiry.
type Claimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

type MemoryClaimer struct {
	mu   sync.Mutex
	held map[string]claim
	now  func() time.Time
}

type claim struct {
	token   uuid.UUID
	expires time.Time
}

func NewMemoryClaimer() *MemoryClaimer {
	return &MemoryClaimer{held: make(map[string]claim), now: time.Now}
}

func (c *MemoryClaimer) Claim(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if cur, ok := c.held[key]; ok && now.Before(cur.expires) {
		return nil, false, nil
	}
	token := uuid.New()
	c.held[key] = claim{token: token, expires: now.Add(ttl)}

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if cur, ok := c.held[key]; ok && cur.token == token {
			delete(c.held, key)
		}
	}, true, nil
}

// releaseScript deletes the key only when it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisClaimer shares claims across server instances.
type RedisClaimer struct {
	client redis.Cmdable
	prefix string
}

func NewRedisClaimer(client redis.Cmdable, prefix string) *RedisClaimer {
	if prefix == "" {
		prefix = "mystery:agent:claim:"
	}
	return &RedisClaimer{client: client, prefix: prefix}
}

func (c *RedisClaimer) Claim(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	full := c.prefix + key
	token := uuid.NewString()
	acquired, err := c.client.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("claim %s: %w", key, err)
	}
	if !acquired {
		return nil, false, nil
	}

	return func() {
		// the claim ctx may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, c.client, []string{full}, token).Err()
	}, true, nil
}
