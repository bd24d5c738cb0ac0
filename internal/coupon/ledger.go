package coupon

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key formats. The calendar day is part of the key identity, so a
// missed midnight job can never hand out yesterday's stock: a new day
// simply resolves to a new key initialized from the quota.
const (
	keyStock  = "coupon:stock:%d:%s"  // coupon:stock:{couponId}:{yyyy-mm-dd} -> remaining
	keyIssued = "coupon:issued:%d:%s" // coupon:issued:{couponId}:{yyyy-mm-dd} -> set of user ids
)

// Keys live past their day so operators can inspect them, then expire.
var ledgerTTL = 48 * time.Hour

// Ledger tracks per-day coupon stock and per-user issuance markers.
type Ledger interface {
	// TakeStock atomically decrements the day's remaining stock,
	// initializing it from quota if the day key does not exist yet.
	// Returns false when the stock is exhausted.
	TakeStock(ctx context.Context, couponID int64, day time.Time, quota int) (bool, error)

	// RestoreStock returns one unit taken by a failed issuance.
	RestoreStock(ctx context.Context, couponID int64, day time.Time) error

	// MarkIssued records that the user received the coupon on the given
	// day. Returns false if the marker already existed.
	MarkIssued(ctx context.Context, couponID int64, day time.Time, userID int64) (bool, error)

	// UnmarkIssued rolls the marker back after a failed issuance.
	UnmarkIssued(ctx context.Context, couponID int64, day time.Time, userID int64) error

	// SetStock overwrites the day's remaining stock. Used by reconciliation.
	SetStock(ctx context.Context, couponID int64, day time.Time, remaining int) error
}

// takeStockScript initializes the counter from the quota when absent, then
// decrements only if stock remains. Single round trip, fully atomic.
var takeStockScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if not v then
	redis.call("SET", KEYS[1], ARGV[1], "EX", ARGV[2])
	v = ARGV[1]
end
if tonumber(v) <= 0 then
	return 0
end
redis.call("DECR", KEYS[1])
return 1
`)

// RedisLedger implements Ledger on the shared redis instance.
type RedisLedger struct {
	client *redis.Client
}

func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

func (l *RedisLedger) TakeStock(ctx context.Context, couponID int64, day time.Time, quota int) (bool, error) {
	key := stockKey(couponID, day)
	n, err := takeStockScript.Run(ctx, l.client, []string{key}, quota, int(ledgerTTL.Seconds())).Int()
	if err != nil {
		return false, fmt.Errorf("take coupon stock %s failed: %w", key, err)
	}
	return n == 1, nil
}

func (l *RedisLedger) RestoreStock(ctx context.Context, couponID int64, day time.Time) error {
	if err := l.client.Incr(ctx, stockKey(couponID, day)).Err(); err != nil {
		return fmt.Errorf("restore coupon stock failed: %w", err)
	}
	return nil
}

func (l *RedisLedger) MarkIssued(ctx context.Context, couponID int64, day time.Time, userID int64) (bool, error) {
	key := issuedKey(couponID, day)
	added, err := l.client.SAdd(ctx, key, userID).Result()
	if err != nil {
		return false, fmt.Errorf("mark coupon issued failed: %w", err)
	}
	// Refresh TTL on every touch; the set must outlive its day.
	l.client.Expire(ctx, key, ledgerTTL)
	return added == 1, nil
}

func (l *RedisLedger) UnmarkIssued(ctx context.Context, couponID int64, day time.Time, userID int64) error {
	if err := l.client.SRem(ctx, issuedKey(couponID, day), userID).Err(); err != nil {
		return fmt.Errorf("unmark coupon issued failed: %w", err)
	}
	return nil
}

func (l *RedisLedger) SetStock(ctx context.Context, couponID int64, day time.Time, remaining int) error {
	if err := l.client.Set(ctx, stockKey(couponID, day), remaining, ledgerTTL).Err(); err != nil {
		return fmt.Errorf("set coupon stock failed: %w", err)
	}
	return nil
}

func stockKey(couponID int64, day time.Time) string {
	return fmt.Sprintf(keyStock, couponID, day.Format("2006-01-02"))
}

func issuedKey(couponID int64, day time.Time) string {
	return fmt.Sprintf(keyIssued, couponID, day.Format("2006-01-02"))
}
