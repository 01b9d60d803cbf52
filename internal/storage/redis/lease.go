package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
)

// acquireScript takes the lease when it is free and extends it when the caller
// already holds it. It returns 1 on success and 0 when another owner holds it.
var acquireScript = redis.NewScript(`
local current = redis.call("GET", KEYS[1])
if current == ARGV[1] then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
	return 1
end
if not current then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
	return 1
end
return 0
`)

// releaseScript deletes the lease only if the caller still owns it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ClockLease makes sure only one process runs a session's phase clock when
// several instances share the store. Owner identifies this process.
type ClockLease struct {
	client *redis.Client
	owner  string
}

// NewClockLease creates a lease handle for owner
func NewClockLease(client *redis.Client, owner string) *ClockLease {
	return &ClockLease{client: client, owner: owner}
}

// Owner returns the identity this handle acquires leases under
func (l *ClockLease) Owner() string {
	return l.owner
}

// Acquire takes or renews the lease on code for ttl. It reports false when
// another owner holds it.
func (l *ClockLease) Acquire(ctx context.Context, code model.SessionCode, ttl time.Duration) (bool, error) {
	n, err := acquireScript.Run(ctx, l.client, []string{clockLeaseKey(code)}, l.owner, ttl.Milliseconds()).Int()
	if err != nil {
		return false, persistenceErr("acquire clock lease", err)
	}
	return n == 1, nil
}

// Release gives up the lease on code if this owner holds it
func (l *ClockLease) Release(ctx context.Context, code model.SessionCode) error {
	if err := releaseScript.Run(ctx, l.client, []string{clockLeaseKey(code)}, l.owner).Err(); err != nil {
		return persistenceErr("release clock lease", err)
	}
	return nil
}
