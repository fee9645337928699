package utils

import (
	"context"
	"sync"
	"time"
)

var (
	oauthStates   = map[string]time.Time{}
	oauthStatesMu sync.Mutex
)

// SaveState stores an OAuth state token with TTL to mitigate CSRF.
func SaveState(state string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, "bustan:oauth:state:"+state, "1", ttl).Err(); err == nil {
			return
		}
	}
	oauthStatesMu.Lock()
	oauthStates[state] = time.Now().Add(ttl)
	oauthStatesMu.Unlock()
}

// ConsumeState validates and removes a state token; each state is single-use.
func ConsumeState(state string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if v, err := rc.GetDel(ctx, "bustan:oauth:state:"+state).Result(); err == nil {
			return v != ""
		}
	}
	oauthStatesMu.Lock()
	expiresAt, ok := oauthStates[state]
	if ok {
		delete(oauthStates, state)
	}
	oauthStatesMu.Unlock()
	return ok && time.Now().Before(expiresAt)
}
