package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"
)

const codeLength = 6

// Cache is a TTL-bounded concurrent store of pending signup OTP codes,
// keyed by email. Codes are single-use: a successful Verify consumes the
// entry. A janitor goroutine evicts expired entries.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	stopC   chan struct{}
}

type entry struct {
	code      string
	expiresAt time.Time
}

// NewCache creates an OTP cache with the given code lifetime.
func NewCache(ttl time.Duration) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		stopC:   make(chan struct{}),
	}

	go c.janitor()

	return c
}

// Generate produces a random numeric code.
func Generate() (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < codeLength; i++ {
		limit.Mul(limit, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}

	return fmt.Sprintf("%0*d", codeLength, n), nil
}

// Save stores a pending code for the email, replacing any previous one.
func (c *Cache) Save(email, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[email] = entry{
		code:      code,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Verify consumes the pending code for the email. Returns false for a
// missing, expired, or mismatched code.
func (c *Cache) Verify(email, code string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[email]
	if !ok {
		return false
	}

	if time.Now().After(e.expiresAt) {
		delete(c.entries, email)
		return false
	}

	if e.code != code {
		return false
	}

	delete(c.entries, email)
	return true
}

// Stop terminates the janitor goroutine.
func (c *Cache) Stop() {
	close(c.stopC)
}

// janitor periodically evicts expired entries to bound memory.
func (c *Cache) janitor() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stopC:
			return
		}
	}
}

func (c *Cache) evictExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for email, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, email)
		}
	}
}
