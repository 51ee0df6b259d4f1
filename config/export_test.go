package config

import "sync"

// resetRedisClient forgets the Redis singleton so each test connects afresh.
func resetRedisClient() {
	redisClient = nil
	redisOnce = sync.Once{}
}
