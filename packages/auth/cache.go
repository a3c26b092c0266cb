package auth

import (
	"sync"
)

// TokenCache provides thread-safe caching for bearer tokens
type TokenCache struct {
	tokens map[string]Token
	mutex  sync.RWMutex
}

// NewTokenCache creates a new token cache
func NewTokenCache() *TokenCache {
	return &TokenCache{
		tokens: make(map[string]Token),
	}
}

// Get retrieves a token from the cache
func (c *TokenCache) Get(key string) (Token, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	t, ok := c.tokens[key]
	return t, ok
}

// Set stores a token in the cache
func (c *TokenCache) Set(key string, token Token) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.tokens[key] = token
}

// Len returns the number of cached tokens
func (c *TokenCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.tokens)
}

// Clear removes all tokens from the cache
func (c *TokenCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.tokens = make(map[string]Token)
}
