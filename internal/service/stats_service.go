package service

import (
	"context"

	"github.com/qolda/qolda-backend/internal/store"
)

// CommunityStats are the headline numbers on the landing page.
type CommunityStats struct {
	Services int64 `json:"services"`
	Members  int64 `json:"members"`
}

type StatsService interface {
	Community(ctx context.Context) (*CommunityStats, error)
}

type statsService struct {
	listings store.ListingRepository
	users    store.UserRepository
}

func NewStatsService(listings store.ListingRepository, users store.UserRepository) StatsService {
	return &statsService{listings: listings, users: users}
}

func (s *statsService) Community(ctx context.Context) (*CommunityStats, error) {
	services, err := s.listings.Count(ctx)
	if err != nil {
		return nil, err
	}
	members, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &CommunityStats{Services: services, Members: members}, nil
}
