package utils

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cspring/microblog/models"
)

const sessionKeyPrefix = "session:"

// In-memory fallback for runs without a reachable Redis (tests, single
// instance dev). Entries carry their own expiry and are swept periodically.
var (
	memSessions   = map[string]models.Session{}
	memSessionsMu sync.Mutex
)

// SaveSession persists the session under its id with the given TTL. Redis is
// preferred; on failure the session is kept in the process-local map.
func SaveSession(sess *models.Session, ttl time.Duration) error {
	sess.ExpiresAt = time.Now().Add(ttl)
	if rc := GetRedis(); rc != nil {
		b, err := json.Marshal(sess)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, sessionKeyPrefix+sess.ID, b, ttl).Err(); err == nil {
			return nil
		}
	}
	memSessionsMu.Lock()
	memSessions[sess.ID] = *sess
	memSessionsMu.Unlock()
	return nil
}

// GetSession loads a live session by id.
func GetSession(id string) (*models.Session, bool) {
	if id == "" {
		return nil, false
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if b, err := rc.Get(ctx, sessionKeyPrefix+id).Bytes(); err == nil {
			var sess models.Session
			if json.Unmarshal(b, &sess) == nil {
				return &sess, true
			}
		}
	}
	memSessionsMu.Lock()
	sess, ok := memSessions[id]
	memSessionsMu.Unlock()
	if !ok || time.Now().After(sess.ExpiresAt) {
		return nil, false
	}
	return &sess, true
}

// DestroySession removes the session. The error is surfaced to the caller
// because a failed destroy must be treated as fatal by the logout path.
func DestroySession(id string) error {
	memSessionsMu.Lock()
	_, inMemory := memSessions[id]
	delete(memSessions, id)
	memSessionsMu.Unlock()

	rc := GetRedis()
	if rc == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Del(ctx, sessionKeyPrefix+id).Err(); err != nil && !inMemory {
		return err
	}
	return nil
}

// StartSessionSweeper launches a background goroutine that drops expired
// entries from the in-memory fallback. Redis enforces TTLs on its own.
func StartSessionSweeper(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		for {
			time.Sleep(interval)
			now := time.Now()
			memSessionsMu.Lock()
			for id, sess := range memSessions {
				if now.After(sess.ExpiresAt) {
					delete(memSessions, id)
				}
			}
			memSessionsMu.Unlock()
		}
	}()
}
