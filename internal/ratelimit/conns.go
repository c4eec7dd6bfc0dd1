package ratelimit

import "sync"

// ConnLimiter caps concurrent long-lived connections per client IP and in
// total.
type ConnLimiter struct {
	mu       sync.Mutex
	active   map[string]int
	total    int
	maxPerIP int
	maxTotal int
}

// NewConnLimiter creates a limiter. Non-positive limits default to 10 per IP
// and 1000 in total.
func NewConnLimiter(maxPerIP, maxTotal int) *ConnLimiter {
	if maxPerIP < 1 {
		maxPerIP = 10
	}
	if maxTotal < 1 {
		maxTotal = 1000
	}
	return &ConnLimiter{
		active:   make(map[string]int),
		maxPerIP: maxPerIP,
		maxTotal: maxTotal,
	}
}

// Acquire reserves a slot for ip. When ok is false no slot was taken;
// otherwise release must be called once the connection ends. Calling release
// more than once has no further effect.
func (l *ConnLimiter) Acquire(ip string) (release func(), ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.total >= l.maxTotal || l.active[ip] >= l.maxPerIP {
		return func() {}, false
	}
	l.active[ip]++
	l.total++

	var once sync.Once
	return func() { once.Do(func() { l.release(ip) }) }, true
}

func (l *ConnLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.total--
	if l.active[ip]--; l.active[ip] <= 0 {
		delete(l.active, ip)
	}
}

// Active returns the number of open connections from ip.
func (l *ConnLimiter) Active(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active[ip]
}

// Total returns the number of open connections.
func (l *ConnLimiter) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}
