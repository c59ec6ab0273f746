package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jaam8/voting_booth/internal/models"
	"github.com/tarantool/go-tarantool"
	"go.uber.org/zap"
)

const (
	tokensSpace  = "vote_tokens"
	expiresIndex = "expires"
	sweepBatch   = 1000
)

// TarantoolTokenCache keeps vote tokens in the vote_tokens space. Each tuple
// carries its own expiry; tuples past it are never returned.
type TarantoolTokenCache struct {
	db  Conn
	l   *zap.Logger
	now func() time.Time
}

func NewTarantoolTokenCache(db Conn, l *zap.Logger) *TarantoolTokenCache {
	return &TarantoolTokenCache{
		db:  db,
		l:   l,
		now: time.Now,
	}
}

func (c *TarantoolTokenCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	expiresAt := c.now().Add(ttl).UnixMilli()
	resp, err := c.db.Replace(tokensSpace, []interface{}{key, value, expiresAt})
	if err != nil {
		c.l.Debug("failed to store vote token", zap.Error(err))
		return fmt.Errorf("repository: database insert error: %w", err)
	}
	c.l.Debug("tarantool response",
		zap.Uint32("status_code", resp.Code),
		zap.Duration("ttl", ttl),
		zap.String("error", resp.Error))
	return nil
}

// Take deletes the token and returns the value it mapped to. The delete is a
// single request, so a token can be taken at most once.
func (c *TarantoolTokenCache) Take(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	resp, err := c.db.Delete(tokensSpace, primaryIndex, []interface{}{key})
	if err != nil {
		c.l.Debug("failed to delete vote token", zap.Error(err))
		return "", fmt.Errorf("repository: database delete error: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", models.ErrTokenNotFound
	}
	tuple, ok := resp.Data[0].([]interface{})
	if !ok {
		c.l.Debug("unexpected data type", zap.Any("data", resp.Data[0]))
		return "", models.ErrFailedToProcessData
	}
	return decodeToken(tuple, c.now())
}

// Sweep removes expired tokens in batches, walking the expires index up to
// now. Reads already ignore expired tuples; this only keeps the space small.
func (c *TarantoolTokenCache) Sweep(ctx context.Context) (int, error) {
	nowMs := c.now().UnixMilli()
	removed := 0
	for {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		resp, err := c.db.Select(tokensSpace, expiresIndex, 0, sweepBatch, tarantool.IterLt, []interface{}{nowMs})
		if err != nil {
			return removed, fmt.Errorf("repository: database select error: %w", err)
		}
		for _, raw := range resp.Data {
			tuple, ok := raw.([]interface{})
			if !ok || len(tuple) == 0 {
				continue
			}
			if _, err := c.db.Delete(tokensSpace, primaryIndex, []interface{}{tuple[0]}); err != nil {
				return removed, fmt.Errorf("repository: database delete error: %w", err)
			}
			removed++
		}
		if len(resp.Data) < sweepBatch {
			break
		}
	}
	c.l.Debug("swept expired vote tokens", zap.Int("removed", removed))
	return removed, nil
}

func decodeToken(tuple []interface{}, now time.Time) (string, error) {
	if len(tuple) < 3 {
		return "", fmt.Errorf("repository: token tuple has %d fields: %w",
			len(tuple), models.ErrFailedToProcessData)
	}
	value, ok := tuple[1].(string)
	expiresAt, ok2 := toInt64(tuple[2])
	if !ok || !ok2 {
		return "", fmt.Errorf("repository: unexpected token field types: %w",
			models.ErrFailedToProcessData)
	}
	if now.UnixMilli() >= expiresAt {
		return "", models.ErrTokenNotFound
	}
	return value, nil
}
