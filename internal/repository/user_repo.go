package repository

import (
	"context"

	"github.com/baldwinboy/neuromancers-community-platform/internal/models"
)

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, username, password_hash, role, date_of_birth)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.DateOfBirth,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, username, password_hash, role, date_of_birth, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	var user models.User
	err := r.db.QueryRow(ctx, query, email).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.DateOfBirth,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, email, username, password_hash, role, date_of_birth, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	var user models.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.DateOfBirth,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

type ProfileRepository struct {
	db DBTX
}

func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) CreateEmpty(ctx context.Context, userID int64) error {
	_, err := r.db.Exec(ctx, `INSERT INTO profiles (user_id) VALUES ($1)`, userID)
	return err
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID int64) (*models.Profile, error) {
	query := `
		SELECT user_id, display_name, bio, languages, country, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`
	var profile models.Profile
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.DisplayName,
		&profile.Bio,
		&profile.Languages,
		&profile.Country,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	query := `
		UPDATE profiles
		SET display_name = $2, bio = $3, languages = $4, country = $5, updated_at = NOW()
		WHERE user_id = $1
		RETURNING updated_at
	`
	return r.db.QueryRow(
		ctx,
		query,
		profile.UserID,
		profile.DisplayName,
		profile.Bio,
		profile.Languages,
		profile.Country,
	).Scan(&profile.UpdatedAt)
}

type StripeAccountRepository struct {
	db DBTX
}

func NewStripeAccountRepository(db DBTX) *StripeAccountRepository {
	return &StripeAccountRepository{db: db}
}

func (r *StripeAccountRepository) Upsert(ctx context.Context, userID int64, accountID string) error {
	query := `
		INSERT INTO stripe_accounts (user_id, account_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET account_id = EXCLUDED.account_id
	`
	_, err := r.db.Exec(ctx, query, userID, accountID)
	return err
}

func (r *StripeAccountRepository) GetByUserID(ctx context.Context, userID int64) (*models.StripeAccount, error) {
	query := `
		SELECT user_id, account_id, created_at
		FROM stripe_accounts
		WHERE user_id = $1
	`
	var account models.StripeAccount
	err := r.db.QueryRow(ctx, query, userID).Scan(&account.UserID, &account.AccountID, &account.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

type CertificateRepository struct {
	db DBTX
}

func NewCertificateRepository(db DBTX) *CertificateRepository {
	return &CertificateRepository{db: db}
}

// Issue records a qualification check. Re-issuing refreshes the issue date
// and expiry.
func (r *CertificateRepository) Issue(ctx context.Context, cert *models.Certificate) error {
	query := `
		INSERT INTO certificates (user_id, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET issued_at = NOW(), expires_at = EXCLUDED.expires_at
		RETURNING issued_at
	`
	return r.db.QueryRow(ctx, query, cert.UserID, cert.ExpiresAt).Scan(&cert.IssuedAt)
}

func (r *CertificateRepository) GetByUserID(ctx context.Context, userID int64) (*models.Certificate, error) {
	query := `
		SELECT user_id, issued_at, expires_at
		FROM certificates
		WHERE user_id = $1
	`
	var cert models.Certificate
	err := r.db.QueryRow(ctx, query, userID).Scan(&cert.UserID, &cert.IssuedAt, &cert.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &cert, nil
}
