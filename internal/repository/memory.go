package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jaam8/voting_booth/internal/models"
	"go.uber.org/zap"
)

type MemoryInvitationRepository struct {
	mu          sync.RWMutex
	invitations map[string]models.Invitation
	l           *zap.Logger
}

func NewMemoryInvitationRepository(l *zap.Logger) *MemoryInvitationRepository {
	return &MemoryInvitationRepository{
		invitations: make(map[string]models.Invitation),
		l:           l,
	}
}

func invitationKey(email, festivalSlug string) string {
	return email + "\x00" + festivalSlug
}

func (r *MemoryInvitationRepository) CreateInvitation(ctx context.Context, inv *models.Invitation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stored := *inv
	if inv.Fields != nil {
		stored.Fields = make(map[string]string, len(inv.Fields))
		for k, v := range inv.Fields {
			stored.Fields[k] = v
		}
	}
	r.mu.Lock()
	r.invitations[invitationKey(inv.Email, inv.FestivalSlug)] = stored
	r.mu.Unlock()
	r.l.Debug("stored invitation",
		zap.String("email", inv.Email),
		zap.String("festival_slug", inv.FestivalSlug))
	return nil
}

func (r *MemoryInvitationRepository) FindInvitation(ctx context.Context, email, festivalSlug string) (*models.Invitation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	inv, ok := r.invitations[invitationKey(email, festivalSlug)]
	r.mu.RUnlock()
	if !ok {
		return nil, models.ErrInvitationNotFound
	}
	return &inv, nil
}

func (r *MemoryInvitationRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.invitations)
}

type tokenEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryTokenCache is a process-local token cache. The LRU evicts entries
// once maxTTL has passed; shorter per-entry TTLs are checked on read.
//
// The cache holds at most size tokens. Past that, the least recently used
// token is dropped before its own expiry and can no longer be redeemed; each
// such eviction is logged and counted. Size it above the number of tokens
// issued per TTL window.
type MemoryTokenCache struct {
	mu        sync.Mutex
	cache     *expirable.LRU[string, tokenEntry]
	now       func() time.Time
	taking    atomic.Bool
	evictions atomic.Int64
	l         *zap.Logger
}

func NewMemoryTokenCache(size int, maxTTL time.Duration, l *zap.Logger) *MemoryTokenCache {
	c := &MemoryTokenCache{
		now: time.Now,
		l:   l,
	}
	c.cache = expirable.NewLRU[string, tokenEntry](size, c.onEvict, maxTTL)
	return c
}

// onEvict runs for every removal, including Take and background expiry. Only
// live tokens pushed out by capacity are reported.
func (c *MemoryTokenCache) onEvict(_ string, entry tokenEntry) {
	if c.taking.Load() || !c.now().Before(entry.expiresAt) {
		return
	}
	c.evictions.Add(1)
	c.l.Warn("vote token evicted before expiry, cache is full",
		zap.Time("expires_at", entry.expiresAt))
}

// Evictions is the number of live tokens dropped for capacity.
func (c *MemoryTokenCache) Evictions() int64 {
	return c.evictions.Load()
}

func (c *MemoryTokenCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.cache.Add(key, tokenEntry{value: value, expiresAt: c.now().Add(ttl)})
	c.mu.Unlock()
	return nil
}

func (c *MemoryTokenCache) Take(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache.Peek(key)
	if !ok {
		return "", models.ErrTokenNotFound
	}
	c.taking.Store(true)
	c.cache.Remove(key)
	c.taking.Store(false)
	if !c.now().Before(entry.expiresAt) {
		return "", models.ErrTokenNotFound
	}
	return entry.value, nil
}

// Get returns a live token value without consuming it.
func (c *MemoryTokenCache) Get(key string) (string, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache.Peek(key)
	if !ok || !c.now().Before(entry.expiresAt) {
		return "", time.Time{}, false
	}
	return entry.value, entry.expiresAt, true
}
