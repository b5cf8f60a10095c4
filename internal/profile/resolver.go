// Package profile resolves participant display data from the users
// collection. Lookups are best effort: a missing or failed profile degrades
// to placeholders instead of failing the requesting view.
package profile

import (
	"context"
	"sync"

	"github.com/qolda/qolda-backend/internal/model"
	"github.com/qolda/qolda-backend/internal/store"
)

const (
	PlaceholderName   = "Unknown user"
	PlaceholderAvatar = "/placeholder.svg"
)

// Resolver caches profile lookups for the lifetime of the owning view, so
// each counterpart is fetched at most once per session.
type Resolver struct {
	users store.UserRepository

	mu    sync.Mutex
	cache map[string]*model.UserProfile
}

func NewResolver(users store.UserRepository) *Resolver {
	return &Resolver{
		users: users,
		cache: make(map[string]*model.UserProfile),
	}
}

// Lookup never fails: on a miss it returns a placeholder profile, which is
// also cached so a dead uid is not re-fetched on every update.
func (r *Resolver) Lookup(ctx context.Context, uid string) *model.UserProfile {
	r.mu.Lock()
	if cached, ok := r.cache[uid]; ok {
		r.mu.Unlock()
		return cached
	}
	r.mu.Unlock()

	resolved, err := r.users.Get(ctx, uid)
	if err != nil {
		resolved = &model.UserProfile{
			UID:       uid,
			Name:      PlaceholderName,
			AvatarURL: PlaceholderAvatar,
		}
	}
	if resolved.Name == "" {
		resolved.Name = PlaceholderName
	}
	if resolved.AvatarURL == "" {
		resolved.AvatarURL = PlaceholderAvatar
	}

	r.mu.Lock()
	r.cache[uid] = resolved
	r.mu.Unlock()
	return resolved
}
