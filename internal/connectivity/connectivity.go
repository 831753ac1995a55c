// Package connectivity reports whether the document store is reachable and
// notifies listeners when that changes.
package connectivity

import (
	"context"
	"sync"
)

type Monitor interface {
	// IsOnline checks reachability now.
	IsOnline(ctx context.Context) bool
	// Subscribe registers fn for every transition. The returned func
	// removes it and is safe to call more than once.
	Subscribe(fn func(online bool)) func()
}

// listeners fans a transition out to every subscriber.
type listeners struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(bool)
}

func (l *listeners) add(fn func(bool)) func() {
	l.mu.Lock()
	if l.fns == nil {
		l.fns = make(map[int]func(bool))
	}

	id := l.next
	l.next++
	l.fns[id] = fn
	l.mu.Unlock()

	var once sync.Once

	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.fns, id)
			l.mu.Unlock()
		})
	}
}

func (l *listeners) notify(online bool) {
	l.mu.Lock()
	fns := make([]func(bool), 0, len(l.fns))
	for _, fn := range l.fns {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(online)
	}
}

// Switch is a monitor driven by hand: an offline toggle in the UI, or tests.
type Switch struct {
	mu     sync.Mutex
	online bool
	subs   listeners
}

func NewSwitch(online bool) *Switch {
	return &Switch{online: online}
}

func (s *Switch) IsOnline(context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.online
}

func (s *Switch) Subscribe(fn func(bool)) func() {
	return s.subs.add(fn)
}

// Set changes the state and notifies subscribers if it differs.
func (s *Switch) Set(online bool) {
	s.mu.Lock()
	changed := s.online != online
	s.online = online
	s.mu.Unlock()

	if changed {
		s.subs.notify(online)
	}
}
