package util

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ariebrainware/spu-dispensary/config"
	"github.com/redis/go-redis/v9"
)

// removeSessionScript removes one session id from an account's set and
// drops the set when it becomes empty.
const removeSessionScript = `
	local removed = redis.call('SREM', KEYS[1], ARGV[1])
	if removed > 0 then
		if redis.call('SCARD', KEYS[1]) == 0 then
			redis.call('DEL', KEYS[1])
		end
	end
	return removed
`

func sessionKey(sessionID string) string {
	return fmt.Sprintf("session:%s", sessionID)
}

func accountSessionsKey(accountID uint) string {
	return fmt.Sprintf("account_sessions:%d", accountID)
}

// StoreSession records a live session id for the account. The per-account
// set expires with the newest session. No-op without Redis.
func StoreSession(ctx context.Context, accountID uint, sessionID string, ttl time.Duration) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return nil
	}
	if err := rdb.Set(ctx, sessionKey(sessionID), strconv.FormatUint(uint64(accountID), 10), ttl).Err(); err != nil {
		return err
	}
	setKey := accountSessionsKey(accountID)
	if err := rdb.SAdd(ctx, setKey, sessionID).Err(); err != nil {
		return err
	}
	return rdb.Expire(ctx, setKey, ttl).Err()
}

// SessionActive reports whether sessionID is still recorded. Without Redis
// there is nothing to revoke against, so every session counts as active.
func SessionActive(ctx context.Context, sessionID string) (bool, error) {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return true, nil
	}
	n, err := rdb.Exists(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RemoveSession forgets a single session.
func RemoveSession(ctx context.Context, accountID uint, sessionID string) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return nil
	}
	if err := rdb.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return err
	}
	return rdb.Eval(ctx, removeSessionScript, []string{accountSessionsKey(accountID)}, sessionID).Err()
}

// InvalidateAccountSessions deletes every recorded session of the account.
func InvalidateAccountSessions(ctx context.Context, accountID uint) error {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return nil
	}
	setKey := accountSessionsKey(accountID)
	members, err := rdb.SMembers(ctx, setKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	keys := make([]string, 0, len(members)+1)
	for _, id := range members {
		keys = append(keys, sessionKey(id))
	}
	keys = append(keys, setKey)
	return rdb.Del(ctx, keys...).Err()
}
