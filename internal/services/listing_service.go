package services

import (
	"context"
	"log"
	"net/url"
	"strings"

	"estatehub/internal/models"
	"estatehub/internal/repositories"
	"estatehub/internal/search"
)

const maxListingImages = 6

type ListingService struct {
	Repo  repositories.ListingRepository
	Users repositories.UserRepository
	Cache *search.ResultCache
}

// NewListingService wires the listing store with the search result cache.
// Writes do not invalidate cached searches; entries age out with their TTL.
func NewListingService(repo repositories.ListingRepository, users repositories.UserRepository, cache *search.ResultCache) *ListingService {
	return &ListingService{Repo: repo, Users: users, Cache: cache}
}

func validateListing(in *models.ListingInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Address = strings.TrimSpace(in.Address)
	switch {
	case in.Name == "" || in.Description == "" || in.Address == "":
		return validationError("name, description and address are required")
	case in.Type != models.ListingTypeSale && in.Type != models.ListingTypeRent:
		return validationError("type must be sale or rent")
	case in.RegularPrice <= 0:
		return validationError("regular price must be positive")
	case in.DiscountedPrice < 0:
		return validationError("discounted price cannot be negative")
	case in.Offer && in.DiscountedPrice >= in.RegularPrice:
		return validationError("discounted price must be lower than regular price")
	case in.Bedrooms < 0 || in.Bathrooms < 0:
		return validationError("room counts cannot be negative")
	case len(in.ImageURLs) == 0:
		return validationError("at least one image is required")
	case len(in.ImageURLs) > maxListingImages:
		return validationError("a listing can have at most 6 images")
	}
	return nil
}

func applyListingInput(l *models.Listing, in models.ListingInput) {
	l.Name = in.Name
	l.Description = in.Description
	l.Address = in.Address
	l.RegularPrice = in.RegularPrice
	l.DiscountedPrice = in.DiscountedPrice
	l.Bathrooms = in.Bathrooms
	l.Bedrooms = in.Bedrooms
	l.Furnished = in.Furnished
	l.Parking = in.Parking
	l.Type = in.Type
	l.Offer = in.Offer
	l.ImageURLs = append([]string(nil), in.ImageURLs...)
}

func (s *ListingService) Create(ctx context.Context, ownerID int, in models.ListingInput) (*models.Listing, error) {
	if err := validateListing(&in); err != nil {
		return nil, err
	}
	l := &models.Listing{UserRef: ownerID}
	applyListingInput(l, in)
	if err := s.Repo.Create(ctx, l); err != nil {
		return nil, upstream("create listing", err)
	}
	log.Printf("[listing][create] ok listing_id=%d owner=%d", l.ID, ownerID)
	return l, nil
}

func (s *ListingService) Get(ctx context.Context, id int) (*models.Listing, error) {
	l, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, upstream("get listing", err)
	}
	if l == nil {
		return nil, ErrNotFound
	}
	return l, nil
}

// owned loads a listing and checks that ownerID may change it.
func (s *ListingService) owned(ctx context.Context, ownerID, id int) (*models.Listing, error) {
	l, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.UserRef != ownerID {
		log.Printf("[listing] forbidden listing_id=%d owner=%d caller=%d", id, l.UserRef, ownerID)
		return nil, ErrForbidden
	}
	return l, nil
}

func (s *ListingService) Update(ctx context.Context, ownerID, id int, in models.ListingInput) (*models.Listing, error) {
	l, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := validateListing(&in); err != nil {
		return nil, err
	}
	applyListingInput(l, in)
	if err := s.Repo.Update(ctx, l); err != nil {
		return nil, upstream("update listing", err)
	}
	return l, nil
}

func (s *ListingService) Delete(ctx context.Context, ownerID, id int) error {
	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return upstream("delete listing", err)
	}
	log.Printf("[listing][delete] ok listing_id=%d owner=%d", id, ownerID)
	return nil
}

func (s *ListingService) ListByOwner(ctx context.Context, ownerID int) ([]models.Listing, error) {
	out, err := s.Repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, upstream("list owner listings", err)
	}
	return out, nil
}

// Owner returns the account that posted the listing, scrubbed.
func (s *ListingService) Owner(ctx context.Context, listingID int) (*models.User, error) {
	l, err := s.Get(ctx, listingID)
	if err != nil {
		return nil, err
	}
	u, err := s.Users.FindByID(ctx, l.UserRef)
	if err != nil {
		return nil, upstream("find owner", err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u.Scrubbed(), nil
}

// Search serves a cached page when one exists for the raw query, otherwise it
// queries the store and caches the page.
func (s *ListingService) Search(ctx context.Context, q url.Values) (*models.ListingPage, error) {
	key := search.CacheKey(q)

	var cached models.ListingPage
	if s.Cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	plan := search.BuildPlan(q)
	listings, err := s.Repo.Find(ctx, plan)
	if err != nil {
		return nil, upstream("find listings", err)
	}
	total, err := s.Repo.Count(ctx, plan)
	if err != nil {
		return nil, upstream("count listings", err)
	}
	page := &models.ListingPage{
		Listings: listings,
		Total:    total,
		Page:     plan.Page,
		Limit:    plan.Limit,
	}
	s.Cache.Set(ctx, key, page)
	return page, nil
}
