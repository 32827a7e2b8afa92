package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"walletlens/internal/config"
	"walletlens/internal/models"
)

// ReportCache memoizes generated reports in redis keyed by the analysis
// fingerprint. A nil cache (or a nil client) degrades to always-miss.
type ReportCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Fingerprint identifies one analysis request. Reports for the same wallet,
// chain and window share an entry; any parameter change misses.
func Fingerprint(wallet, chain string, windowDays int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", wallet, chain, windowDays)))
	return "walletlens:report:" + hex.EncodeToString(sum[:])
}

func (c *ReportCache) Get(ctx context.Context, key string) (*models.WalletReport, error) {
	if c == nil || c.Client == nil {
		return nil, nil
	}
	raw, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var report models.WalletReport
	if err := json.Unmarshal(raw, &report); err != nil {
		// Corrupt entry: drop it and treat as a miss.
		_ = c.Client.Del(ctx, key).Err()
		return nil, nil
	}
	return &report, nil
}

func (c *ReportCache) Set(ctx context.Context, key string, report *models.WalletReport) error {
	if c == nil || c.Client == nil || report == nil {
		return nil
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return err
	}
	ttl := c.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return c.Client.Set(ctx, key, raw, ttl).Err()
}

func (c *ReportCache) Invalidate(ctx context.Context, key string) error {
	if c == nil || c.Client == nil {
		return nil
	}
	return c.Client.Del(ctx, key).Err()
}
