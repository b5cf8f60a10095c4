package service

import (
	"context"
	"errors"
	"strings"

	"github.com/qolda/qolda-backend/internal/model"
	"github.com/qolda/qolda-backend/internal/store"
)

type CreateListingInput struct {
	Title          string
	Category       string
	Description    string
	PricingType    string
	PricingDetails string
	Location       model.ListingLocation
	Availability   string
	Images         []string
	Terms          bool
}

type ListingService interface {
	Create(ctx context.Context, owner model.ListingOwner, in CreateListingInput) (*model.Listing, error)
	Get(ctx context.Context, id string) (*model.Listing, error)
	List(ctx context.Context, category string) ([]model.Listing, error)
	Delete(ctx context.Context, id, uid string) error
}

type listingService struct {
	repo store.ListingRepository
}

func NewListingService(repo store.ListingRepository) ListingService {
	return &listingService{repo: repo}
}

func (s *listingService) Create(ctx context.Context, owner model.ListingOwner, in CreateListingInput) (*model.Listing, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	category := strings.TrimSpace(in.Category)
	if title == "" || len(title) > 120 {
		return nil, errors.New("invalid title")
	}
	if description == "" {
		return nil, errors.New("invalid description")
	}
	if category == "" {
		return nil, errors.New("category is required")
	}
	switch in.PricingType {
	case "free", "exchange", "fee":
	default:
		return nil, errors.New("invalid pricing type")
	}
	if !in.Terms {
		return nil, errors.New("terms must be accepted")
	}
	for _, img := range in.Images {
		if strings.HasPrefix(strings.TrimSpace(img), "data:") {
			return nil, errors.New("images must be URLs, not data URIs")
		}
	}

	details := strings.TrimSpace(in.PricingDetails)
	if in.PricingType == "free" {
		details = ""
	}

	listing := &model.Listing{
		Title:          title,
		Category:       category,
		Description:    description,
		PricingType:    in.PricingType,
		PricingDetails: details,
		Location:       in.Location,
		Availability:   strings.TrimSpace(in.Availability),
		Images:         in.Images,
		Terms:          in.Terms,
		CreatedBy:      owner,
	}
	return s.repo.Create(ctx, listing)
}

func (s *listingService) Get(ctx context.Context, id string) (*model.Listing, error) {
	listing, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return listing, nil
}

func (s *listingService) List(ctx context.Context, category string) ([]model.Listing, error) {
	return s.repo.List(ctx, strings.TrimSpace(category))
}

func (s *listingService) Delete(ctx context.Context, id, uid string) error {
	listing, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if listing.CreatedBy.UID != uid {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}
