package database

import (
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/redis/go-redis/v9"
)

// NewRedis creates the pub/sub client for the event channel.
func NewRedis(addr string, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewMemcached creates the token cache client.
func NewMemcached(server string) *memcache.Client {
	return memcache.New(server)
}
