package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/keshon/textcmd/pkg/cmd"
)

type userLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Cooldown limits every user to one command per interval. Limiters of users
// that went quiet are dropped by Sweep.
type Cooldown struct {
	every time.Duration
	now   func() time.Time
	log   zerolog.Logger

	mu    sync.Mutex
	users map[string]*userLimiter
}

func NewCooldown(every time.Duration, log zerolog.Logger) *Cooldown {
	return &Cooldown{
		every: every,
		now:   time.Now,
		log:   log,
		users: make(map[string]*userLimiter),
	}
}

// Allow reports whether userID may run a command now.
func (c *Cooldown) Allow(userID string) bool {
	if c.every <= 0 {
		return true
	}
	now := c.now()

	c.mu.Lock()
	u, ok := c.users[userID]
	if !ok {
		u = &userLimiter{lim: rate.NewLimiter(rate.Every(c.every), 1)}
		c.users[userID] = u
	}
	u.lastSeen = now
	c.mu.Unlock()

	return u.lim.AllowN(now, 1)
}

// Middleware returns the handler wrapper enforcing the cooldown.
func (c *Cooldown) Middleware() cmd.Middleware {
	return func(next cmd.Handler) cmd.Handler {
		return cmd.Wrap(next, func(ctx context.Context, inv *cmd.Invocation, next cmd.Handler) (any, error) {
			if !c.Allow(inv.Message.AuthorID) {
				c.log.Debug().Str("user", inv.Message.AuthorID).Str("label", inv.Descriptor.Label).Msg("Command on cooldown")
				return nil, ErrCooldown
			}
			return next.Handle(ctx, inv)
		})
	}
}

// Sweep forgets users idle for longer than idle and returns how many were
// dropped.
func (c *Cooldown) Sweep(idle time.Duration) int {
	cutoff := c.now().Add(-idle)

	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for id, u := range c.users {
		if u.lastSeen.Before(cutoff) {
			delete(c.users, id)
			n++
		}
	}
	return n
}

// Len is the number of tracked users.
func (c *Cooldown) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.users)
}

// RunSweeper clears idle limiters every interval until ctx is done.
func (c *Cooldown) RunSweeper(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := c.Sweep(10 * c.every); n > 0 {
				c.log.Debug().Int("dropped", n).Msg("Swept idle cooldowns")
			}
		}
	}
}
