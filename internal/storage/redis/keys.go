package redis

import (
	"fmt"

	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "pwf"

// sessionKey returns the Redis key for a Session
func sessionKey(code model.SessionCode) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, code)
}

// sessionsByCreationKey returns the Redis key for the ZSET of session codes scored by creation time
func sessionsByCreationKey() string {
	return fmt.Sprintf("%s:idx:sessions_by_created", keyPrefix)
}

// tasksKey returns the Redis key for the task pool
func tasksKey() string {
	return fmt.Sprintf("%s:tasks", keyPrefix)
}

// clockLeaseKey returns the Redis key naming the process that runs a session's clock
func clockLeaseKey(code model.SessionCode) string {
	return fmt.Sprintf("%s:clock:%s", keyPrefix, code)
}
