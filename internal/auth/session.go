// Package auth abstracts the signed-in identity the chat core depends on.
// The HTTP layer wraps a verified Firebase token into a Static session; the
// views and tests use Local, whose sign-in/out transitions drive when live
// subscriptions may run.
package auth

import "sync"

// Session exposes the current user id, empty when signed out, and a change
// stream firing on every sign-in and sign-out transition.
type Session interface {
	CurrentUID() string
	Watch() *Watch
}

// Watch is a cancellable subscription to session transitions. Each update
// carries the uid now in effect ("" on sign-out).
type Watch struct {
	updates chan string
	stop    func()
	once    sync.Once
}

func (w *Watch) Updates() <-chan string {
	return w.updates
}

func (w *Watch) Cancel() {
	w.once.Do(w.stop)
}

// Static is a fixed identity, used for request-scoped work where the uid was
// already established by the auth middleware.
type Static string

func (s Static) CurrentUID() string {
	return string(s)
}

func (s Static) Watch() *Watch {
	w := &Watch{updates: make(chan string, 1)}
	w.stop = func() { close(w.updates) }
	w.updates <- string(s)
	return w
}

// Local is a mutable session with observable sign-in/out transitions.
type Local struct {
	mu      sync.Mutex
	uid     string
	watches map[*Watch]struct{}
}

func NewLocal() *Local {
	return &Local{watches: make(map[*Watch]struct{})}
}

func (l *Local) CurrentUID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.uid
}

func (l *Local) SignIn(uid string) {
	l.set(uid)
}

func (l *Local) SignOut() {
	l.set("")
}

func (l *Local) set(uid string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.uid == uid {
		return
	}
	l.uid = uid
	for w := range l.watches {
		w.push(uid)
	}
}

func (l *Local) Watch() *Watch {
	l.mu.Lock()
	defer l.mu.Unlock()
	var w *Watch
	w = &Watch{
		updates: make(chan string, 1),
		stop: func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if _, ok := l.watches[w]; ok {
				delete(l.watches, w)
				close(w.updates)
			}
		},
	}
	l.watches[w] = struct{}{}
	w.push(l.uid)
	return w
}

// push coalesces: a pending, not yet consumed transition is replaced by the
// newest one.
func (w *Watch) push(uid string) {
	for {
		select {
		case w.updates <- uid:
			return
		default:
			select {
			case <-w.updates:
			default:
			}
		}
	}
}
