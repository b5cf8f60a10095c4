package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/qolda/qolda-backend/internal/model"
	"github.com/qolda/qolda-backend/internal/store"
)

// ProfileUpdate carries the editable profile fields. Nil means "leave as is"
// so the write is a partial merge.
type ProfileUpdate struct {
	Name   *string
	Phone  *string
	Bio    *string
	Avatar *string
}

type ProfileService interface {
	// GetOrCreate returns the profile, creating a default document on the
	// member's first visit, and reports whether it was created.
	GetOrCreate(ctx context.Context, uid, email, name string) (*model.UserProfile, bool, error)
	Update(ctx context.Context, uid string, upd ProfileUpdate) (*model.UserProfile, error)
}

type profileService struct {
	users store.UserRepository
}

func NewProfileService(users store.UserRepository) ProfileService {
	return &profileService{users: users}
}

func (s *profileService) GetOrCreate(ctx context.Context, uid, email, name string) (*model.UserProfile, bool, error) {
	profile, err := s.users.Get(ctx, uid)
	if err == nil {
		return profile, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, err
	}

	created := &model.UserProfile{
		UID:       uid,
		Name:      strings.TrimSpace(name),
		Email:     strings.TrimSpace(email),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.users.Set(ctx, created); err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (s *profileService) Update(ctx context.Context, uid string, upd ProfileUpdate) (*model.UserProfile, error) {
	fields := make(map[string]interface{})
	if upd.Name != nil {
		fields["name"] = strings.TrimSpace(*upd.Name)
	}
	if upd.Phone != nil {
		fields["phone"] = strings.TrimSpace(*upd.Phone)
	}
	if upd.Bio != nil {
		fields["bio"] = *upd.Bio
	}
	if upd.Avatar != nil {
		fields["avatar"] = strings.TrimSpace(*upd.Avatar)
	}
	if len(fields) > 0 {
		if err := s.users.Update(ctx, uid, fields); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
	}
	profile, err := s.users.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return profile, nil
}
