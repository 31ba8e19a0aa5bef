package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"estatehub/internal/models"
)

// ErrDuplicateEmail is returned by Create when the email is already taken.
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository is the credential store. Lookups return (nil, nil) when no
// record matches; updates and deletes return the record as it is afterwards
// (or as it was, for delete), or nil when nothing matched.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int) (*models.User, error)
	FindByVerificationCode(ctx context.Context, code string, now time.Time) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateByEmail(ctx context.Context, email string, upd models.UserUpdate) (*models.User, error)
	UpdateByID(ctx context.Context, id int, upd models.UserUpdate) (*models.User, error)
	DeleteByID(ctx context.Context, id int) (*models.User, error)
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `
	id, email, username, password_hash, avatar, address, phone,
	is_verified, verification_code, verification_code_expires_at,
	reset_otp_hash, reset_otp_expires_at, last_login_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var (
		code      sql.NullString
		codeExp   sql.NullTime
		otpHash   sql.NullString
		otpExp    sql.NullTime
		lastLogin sql.NullTime
		avatar    sql.NullString
		address   sql.NullString
		phone     sql.NullString
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &avatar, &address, &phone,
		&u.IsVerified, &code, &codeExp,
		&otpHash, &otpExp, &lastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Avatar = avatar.String
	u.Address = address.String
	u.Phone = phone.String
	if code.Valid {
		s := code.String
		u.VerificationCode = &s
	}
	if codeExp.Valid {
		t := codeExp.Time
		u.VerificationCodeExpiresAt = &t
	}
	if otpHash.Valid {
		s := otpHash.String
		u.ResetOTPHash = &s
	}
	if otpExp.Valid {
		t := otpExp.Time
		u.ResetOTPExpiresAt = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return u, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	q := `SELECT` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, email))
	if err != nil {
		return nil, fmt.Errorf("user find by email: %w", err)
	}
	return u, nil
}

func (r *userRepository) FindByID(ctx context.Context, id int) (*models.User, error) {
	q := `SELECT` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, fmt.Errorf("user find by id: %w", err)
	}
	return u, nil
}

func (r *userRepository) FindByVerificationCode(ctx context.Context, code string, now time.Time) (*models.User, error) {
	q := `SELECT` + userColumns + `
		FROM users
		WHERE verification_code = $1 AND verification_code_expires_at > $2
		ORDER BY verification_code_expires_at DESC
		LIMIT 1`
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, code, now))
	if err != nil {
		return nil, fmt.Errorf("user find by verification code: %w", err)
	}
	return u, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	const q = `
		INSERT INTO users (
			email, username, password_hash, avatar, address, phone,
			is_verified, verification_code, verification_code_expires_at,
			reset_otp_hash, reset_otp_expires_at, last_login_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NULL,NULL,NULL)
		RETURNING id, created_at, updated_at
	`
	err := r.DB.QueryRowContext(ctx, q,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Avatar,
		user.Address,
		user.Phone,
		user.IsVerified,
		user.VerificationCode,
		user.VerificationCodeExpiresAt,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("user create: %w", err)
	}
	return nil
}

func (r *userRepository) UpdateByEmail(ctx context.Context, email string, upd models.UserUpdate) (*models.User, error) {
	return r.update(ctx, "email", email, upd)
}

func (r *userRepository) UpdateByID(ctx context.Context, id int, upd models.UserUpdate) (*models.User, error) {
	return r.update(ctx, "id", id, upd)
}

func (r *userRepository) update(ctx context.Context, keyColumn string, key any, upd models.UserUpdate) (*models.User, error) {
	sets, args := buildUserUpdate(upd)
	args = append(args, key)
	q := fmt.Sprintf(`UPDATE users SET %s WHERE %s = $%d RETURNING`+userColumns,
		strings.Join(sets, ", "), keyColumn, len(args))

	u, err := scanUser(r.DB.QueryRowContext(ctx, q, args...))
	if err != nil {
		return nil, fmt.Errorf("user update by %s: %w", keyColumn, err)
	}
	return u, nil
}

// buildUserUpdate renders the SET list for upd; updated_at is always bumped.
func buildUserUpdate(upd models.UserUpdate) ([]string, []any) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.Username != nil {
		add("username", *upd.Username)
	}
	if upd.PasswordHash != nil {
		add("password_hash", *upd.PasswordHash)
	}
	if upd.Avatar != nil {
		add("avatar", *upd.Avatar)
	}
	if upd.Address != nil {
		add("address", *upd.Address)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.IsVerified != nil {
		add("is_verified", *upd.IsVerified)
	}
	if upd.LastLoginAt != nil {
		add("last_login_at", *upd.LastLoginAt)
	}
	if upd.SetVerification {
		add("verification_code", upd.VerificationCode)
		add("verification_code_expires_at", upd.VerificationCodeExpiresAt)
	}
	if upd.SetResetOTP {
		add("reset_otp_hash", upd.ResetOTPHash)
		add("reset_otp_expires_at", upd.ResetOTPExpiresAt)
	}
	sets = append(sets, "updated_at = NOW()")
	return sets, args
}

func (r *userRepository) DeleteByID(ctx context.Context, id int) (*models.User, error) {
	q := `DELETE FROM users WHERE id = $1 RETURNING` + userColumns
	u, err := scanUser(r.DB.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, fmt.Errorf("user delete: %w", err)
	}
	return u, nil
}
