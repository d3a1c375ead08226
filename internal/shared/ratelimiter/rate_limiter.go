// Package ratelimiter は操作を繰り返せる頻度を制限します。
package ratelimiter

import (
	"sync"
	"time"
)

// RateLimiter はキーごとに、interval の固定ウィンドウあたり最大 limit 回の操作を許可します。
// 並行に使っても安全です。
type RateLimiter struct {
	limit    int
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	start time.Time
	count int
}

// NewRateLimiter は新しい RateLimiter のインスタンスを生成します。limit が0以下なら制限しません。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:    limit,
		interval: interval,
		now:      time.Now,
		windows:  make(map[string]*window),
	}
}

// WithClock はテスト用に時刻の取得元を差し替えます。
func (rl *RateLimiter) WithClock(now func() time.Time) *RateLimiter {
	rl.now = now
	return rl
}

// Allow は key の操作を記録し、上限内かを返します。
// 上限を超えた場合、retryAfter はウィンドウがリセットされるまでの時間です。
func (rl *RateLimiter) Allow(key string) (ok bool, retryAfter time.Duration) {
	if rl == nil || rl.limit <= 0 {
		return true, 0
	}
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, found := rl.windows[key]
	// interval を過ぎたらカウントリセット
	if !found || now.Sub(w.start) >= rl.interval {
		rl.sweep(now)
		rl.windows[key] = &window{start: now, count: 1}
		return true, 0
	}

	if w.count >= rl.limit {
		return false, rl.interval - now.Sub(w.start)
	}
	w.count++
	return true, 0
}

// sweep は期限切れのウィンドウを捨て、見かけたクライアントの数だけ map が増えないようにします。
func (rl *RateLimiter) sweep(now time.Time) {
	for k, w := range rl.windows {
		if now.Sub(w.start) >= rl.interval {
			delete(rl.windows, k)
		}
	}
}
