package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"estatehub/internal/models"
	"estatehub/internal/search"
)

// MemoryUserRepository keeps users in process memory. It backs the server when
// no database is configured and doubles as a test store.
type MemoryUserRepository struct {
	mu     sync.Mutex
	nextID int
	users  map[int]*models.User
	now    func() time.Time
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: map[int]*models.User{}, now: time.Now}
}

func cloneUser(u *models.User) *models.User {
	cp := *u
	models.UserUpdate{
		SetVerification:           true,
		VerificationCode:          u.VerificationCode,
		VerificationCodeExpiresAt: u.VerificationCodeExpiresAt,
		SetResetOTP:               true,
		ResetOTPHash:              u.ResetOTPHash,
		ResetOTPExpiresAt:         u.ResetOTPExpiresAt,
		LastLoginAt:               u.LastLoginAt,
	}.Apply(&cp)
	return &cp
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (r *MemoryUserRepository) FindByVerificationCode(_ context.Context, code string, now time.Time) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found *models.User
	for _, u := range r.users {
		if u.VerificationCode == nil || *u.VerificationCode != code {
			continue
		}
		if u.VerificationCodeExpiresAt == nil || !u.VerificationCodeExpiresAt.After(now) {
			continue
		}
		if found == nil || u.VerificationCodeExpiresAt.After(*found.VerificationCodeExpiresAt) {
			found = u
		}
	}
	if found == nil {
		return nil, nil
	}
	return cloneUser(found), nil
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = r.now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *MemoryUserRepository) UpdateByEmail(_ context.Context, email string, upd models.UserUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return r.applyLocked(u, upd), nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepository) UpdateByID(_ context.Context, id int, upd models.UserUpdate) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return r.applyLocked(u, upd), nil
}

func (r *MemoryUserRepository) applyLocked(u *models.User, upd models.UserUpdate) *models.User {
	upd.Apply(u)
	u.UpdatedAt = r.now()
	return cloneUser(u)
}

func (r *MemoryUserRepository) DeleteByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	delete(r.users, id)
	return u, nil
}

// Count is the number of stored users.
func (r *MemoryUserRepository) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}

// MemoryListingRepository is the in-process counterpart of the Postgres listing store.
type MemoryListingRepository struct {
	mu       sync.Mutex
	nextID   int
	listings map[int]models.Listing
	now      func() time.Time
}

func NewMemoryListingRepository() *MemoryListingRepository {
	return &MemoryListingRepository{listings: map[int]models.Listing{}, now: time.Now}
}

func cloneListing(l models.Listing) models.Listing {
	l.ImageURLs = append([]string(nil), l.ImageURLs...)
	return l
}

func (r *MemoryListingRepository) matching(plan search.Plan) []models.Listing {
	out := []models.Listing{}
	for _, l := range r.listings {
		if plan.Matches(l) {
			out = append(out, cloneListing(l))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		c := compareListings(out[i], out[j], plan.SortField)
		if c == 0 {
			c = out[i].ID - out[j].ID
		}
		if plan.SortDesc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func compareListings(a, b models.Listing, field string) int {
	cmpFloat := func(x, y float64) int {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	switch field {
	case "regularPrice":
		return cmpFloat(a.RegularPrice, b.RegularPrice)
	case "discountedPrice":
		return cmpFloat(a.DiscountedPrice, b.DiscountedPrice)
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "bedrooms":
		return a.Bedrooms - b.Bedrooms
	case "bathrooms":
		return a.Bathrooms - b.Bathrooms
	case "updatedAt":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func (r *MemoryListingRepository) Find(_ context.Context, plan search.Plan) ([]models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.matching(plan)
	skip := plan.Skip()
	if skip < 0 || skip >= len(all) {
		return []models.Listing{}, nil
	}
	end := skip + plan.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[skip:end], nil
}

func (r *MemoryListingRepository) Count(_ context.Context, plan search.Plan) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.matching(plan)), nil
}

func (r *MemoryListingRepository) Create(_ context.Context, l *models.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	l.ID = r.nextID
	if l.CreatedAt.IsZero() {
		l.CreatedAt = r.now()
	}
	l.UpdatedAt = l.CreatedAt
	r.listings[l.ID] = cloneListing(*l)
	return nil
}

func (r *MemoryListingRepository) GetByID(_ context.Context, id int) (*models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, nil
	}
	cp := cloneListing(l)
	return &cp, nil
}

func (r *MemoryListingRepository) Update(_ context.Context, l *models.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[l.ID]; !ok {
		return nil
	}
	l.UpdatedAt = r.now()
	r.listings[l.ID] = cloneListing(*l)
	return nil
}

func (r *MemoryListingRepository) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.listings, id)
	return nil
}

func (r *MemoryListingRepository) ListByOwner(_ context.Context, ownerID int) ([]models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Listing{}
	for _, l := range r.listings {
		if l.UserRef == ownerID {
			out = append(out, cloneListing(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *MemoryListingRepository) DeleteByOwner(_ context.Context, ownerID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, l := range r.listings {
		if l.UserRef == ownerID {
			delete(r.listings, id)
		}
	}
	return nil
}
