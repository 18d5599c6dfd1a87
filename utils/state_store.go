package utils

import (
	"context"
	"sync"
	"time"
)

const stateKeyPrefix = "oauth:state:"

var (
	memStates   = map[string]time.Time{}
	memStatesMu sync.Mutex
)

// SaveState stores an OAuth state token with TTL to mitigate CSRF on the
// external identity callback.
func SaveState(state string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if rc.Set(ctx, stateKeyPrefix+state, "1", ttl).Err() == nil {
			return
		}
	}
	memStatesMu.Lock()
	memStates[state] = time.Now().Add(ttl)
	memStatesMu.Unlock()
}

// ConsumeState validates and removes a state token; each token is single-use.
func ConsumeState(state string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if v, err := rc.GetDel(ctx, stateKeyPrefix+state).Result(); err == nil {
			return v != ""
		}
	}
	memStatesMu.Lock()
	expires, ok := memStates[state]
	if ok {
		delete(memStates, state)
	}
	memStatesMu.Unlock()
	return ok && time.Now().Before(expires)
}
