package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/lib/pq"

	"estatehub/internal/models"
	"estatehub/internal/search"
)

// ListingRepository is the listing store. Single-record lookups return (nil, nil)
// when nothing matches.
type ListingRepository interface {
	Find(ctx context.Context, plan search.Plan) ([]models.Listing, error)
	Count(ctx context.Context, plan search.Plan) (int, error)
	Create(ctx context.Context, l *models.Listing) error
	GetByID(ctx context.Context, id int) (*models.Listing, error)
	Update(ctx context.Context, l *models.Listing) error
	Delete(ctx context.Context, id int) error
	ListByOwner(ctx context.Context, ownerID int) ([]models.Listing, error)
	DeleteByOwner(ctx context.Context, ownerID int) error
}

type listingRepository struct {
	db *sql.DB
}

func NewListingRepository(db *sql.DB) ListingRepository {
	if db == nil {
		log.Fatalf("received nil database connection")
	}
	return &listingRepository{db: db}
}

const listingColumns = `
	id, name, description, address, regular_price, discounted_price,
	bathrooms, bedrooms, furnished, parking, type, offer, image_urls,
	user_ref, created_at, updated_at`

// sortColumns whitelists the sortable fields; anything else sorts by created_at.
var sortColumns = map[string]string{
	"createdAt":       "created_at",
	"updatedAt":       "updated_at",
	"regularPrice":    "regular_price",
	"discountedPrice": "discounted_price",
	"name":            "name",
	"bedrooms":        "bedrooms",
	"bathrooms":       "bathrooms",
}

func scanListing(row rowScanner) (*models.Listing, error) {
	var l models.Listing
	err := row.Scan(
		&l.ID, &l.Name, &l.Description, &l.Address, &l.RegularPrice, &l.DiscountedPrice,
		&l.Bathrooms, &l.Bedrooms, &l.Furnished, &l.Parking, &l.Type, &l.Offer, pq.Array(&l.ImageURLs),
		&l.UserRef, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// buildListingFilter renders plan's filters as a WHERE clause with positional args.
func buildListingFilter(plan search.Plan) (string, []any) {
	where := []string{"1=1"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if plan.Search != "" {
		where = append(where, "name ILIKE '%' || "+arg(escapeLike(plan.Search))+" || '%'")
	}
	where = append(where, "type = ANY("+arg(pq.Array(plan.Types))+")")

	tri := func(col string, t search.TriState) {
		switch t {
		case search.OnlyTrue:
			where = append(where, col+" = TRUE")
		case search.OnlyFalse:
			where = append(where, col+" = FALSE")
		}
	}
	tri("furnished", plan.Furnished)
	tri("offer", plan.Offer)
	tri("parking", plan.Parking)

	if plan.MaxPrice != nil {
		p := arg(*plan.MaxPrice)
		where = append(where, fmt.Sprintf(
			"((discounted_price > 0 AND discounted_price <= %s) OR regular_price <= %s)", p, p))
	}
	return strings.Join(where, " AND "), args
}

func buildListingOrder(plan search.Plan) string {
	col, ok := sortColumns[plan.SortField]
	if !ok {
		col = "created_at"
	}
	return fmt.Sprintf("%s %s, id %s", col, strings.ToUpper(plan.Order()), strings.ToUpper(plan.Order()))
}

func (r *listingRepository) Find(ctx context.Context, plan search.Plan) ([]models.Listing, error) {
	where, args := buildListingFilter(plan)
	args = append(args, plan.Limit, plan.Skip())
	query := fmt.Sprintf("SELECT %s FROM listings WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d",
		listingColumns, where, buildListingOrder(plan), len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing find: %w", err)
	}
	defer rows.Close()

	out := []models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("listing scan: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *listingRepository) Count(ctx context.Context, plan search.Plan) (int, error) {
	where, args := buildListingFilter(plan)
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM listings WHERE "+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("listing count: %w", err)
	}
	return n, nil
}

func (r *listingRepository) Create(ctx context.Context, l *models.Listing) error {
	const query = `
		INSERT INTO listings (
			name, description, address, regular_price, discounted_price,
			bathrooms, bedrooms, furnished, parking, type, offer, image_urls, user_ref
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		l.Name, l.Description, l.Address, l.RegularPrice, l.DiscountedPrice,
		l.Bathrooms, l.Bedrooms, l.Furnished, l.Parking, l.Type, l.Offer, pq.Array(l.ImageURLs), l.UserRef,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("listing create: %w", err)
	}
	return nil
}

func (r *listingRepository) GetByID(ctx context.Context, id int) (*models.Listing, error) {
	query := "SELECT " + listingColumns + " FROM listings WHERE id = $1"
	l, err := scanListing(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing get: %w", err)
	}
	return l, nil
}

func (r *listingRepository) Update(ctx context.Context, l *models.Listing) error {
	const query = `
		UPDATE listings
		SET name=$1, description=$2, address=$3, regular_price=$4, discounted_price=$5,
			bathrooms=$6, bedrooms=$7, furnished=$8, parking=$9, type=$10, offer=$11,
			image_urls=$12, updated_at=NOW()
		WHERE id=$13
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		l.Name, l.Description, l.Address, l.RegularPrice, l.DiscountedPrice,
		l.Bathrooms, l.Bedrooms, l.Furnished, l.Parking, l.Type, l.Offer,
		pq.Array(l.ImageURLs), l.ID,
	).Scan(&l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("listing update: %w", err)
	}
	return nil
}

func (r *listingRepository) Delete(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id=$1`, id)
	return err
}

func (r *listingRepository) ListByOwner(ctx context.Context, ownerID int) ([]models.Listing, error) {
	query := "SELECT " + listingColumns + " FROM listings WHERE user_ref = $1 ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing list by owner: %w", err)
	}
	defer rows.Close()

	out := []models.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("listing scan: %w", err)
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func (r *listingRepository) DeleteByOwner(ctx context.Context, ownerID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE user_ref=$1`, ownerID)
	return err
}
