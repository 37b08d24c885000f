// Package lock serializes booking operations on the same job or translator.
package lock

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Locker acquires an exclusive lock on key. The returned release func is safe to call more than once.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

func JobKey(id int64) string {
	return fmt.Sprintf("job:%d", id)
}

func TranslatorKey(id int64) string {
	return fmt.Sprintf("translator:%d", id)
}

// AcquireAll takes every key in a stable order and releases them together.
func AcquireAll(ctx context.Context, l Locker, keys ...string) (func(), error) {
	ordered := append([]string(nil), keys...)
	sort.Strings(ordered)

	releases := make([]func(), 0, len(ordered))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	seen := make(map[string]struct{}, len(ordered))
	for _, k := range ordered {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		release, err := l.Acquire(ctx, k)
		if err != nil {
			releaseAll()
			return nil, fmt.Errorf("failed to acquire lock %s: %w", k, err)
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}

// Local is an in-process keyed lock.
type Local struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocal() *Local {
	return &Local{slots: make(map[string]*slot)}
}

func (l *Local) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.unref(key, s)
		})
	}, nil
}

func (l *Local) unref(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// size reports how many keys are currently tracked.
func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
