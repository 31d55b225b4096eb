package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/freelance-escrow/internal/models"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrSessionNotFound = errors.New("session not found")
)

// UserRepository управляет пользователями, сессиями и профилями.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create сохраняет нового пользователя.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, username, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, is_active, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, user.Email, user.Username, user.PasswordHash, user.Role).
		Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil && isUniqueViolation(err) {
		return ErrUserExists
	}
	return err
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = $1`, email)
	if isNoRows(err) {
		return nil, ErrUserNotFound
	}
	return &user, err
}

// GetByID возвращает пользователя по ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = $1`, id)
	if isNoRows(err) {
		return nil, ErrUserNotFound
	}
	return &user, err
}

// UpdateLastLogin отмечает время последнего входа.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, id)
	return err
}

// CreateSession сохраняет refresh-сессию пользователя.
func (r *UserRepository) CreateSession(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (user_id, refresh_token, user_agent, ip_address, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		session.UserID, session.RefreshToken, session.UserAgent, session.IPAddress, session.ExpiresAt).
		Scan(&session.ID, &session.CreatedAt)
}

// GetSessionByToken возвращает сессию по refresh-токену.
func (r *UserRepository) GetSessionByToken(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	err := r.db.GetContext(ctx, &session, `SELECT * FROM sessions WHERE refresh_token = $1`, token)
	if isNoRows(err) {
		return nil, ErrSessionNotFound
	}
	return &session, err
}

// DeleteSessionByToken удаляет сессию по refresh-токену.
func (r *UserRepository) DeleteSessionByToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, token)
	return err
}

// GetProfile возвращает профиль пользователя.
func (r *UserRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.GetContext(ctx, &profile, `SELECT * FROM profiles WHERE user_id = $1`, userID)
	if isNoRows(err) {
		return nil, ErrUserNotFound
	}
	return &profile, err
}

// UpsertProfile создаёт или обновляет профиль пользователя.
func (r *UserRepository) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (user_id, display_name, bio, hourly_rate, experience_level, skills, location, avatar_uri, website)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			bio = EXCLUDED.bio,
			hourly_rate = EXCLUDED.hourly_rate,
			experience_level = EXCLUDED.experience_level,
			skills = EXCLUDED.skills,
			location = EXCLUDED.location,
			avatar_uri = EXCLUDED.avatar_uri,
			website = EXCLUDED.website,
			updated_at = NOW()
		RETURNING updated_at
	`
	return r.db.QueryRowContext(ctx, query,
		profile.UserID, profile.DisplayName, profile.Bio, profile.HourlyRate,
		profile.ExperienceLevel, profile.Skills, profile.Location, profile.AvatarURI, profile.Website).
		Scan(&profile.UpdatedAt)
}

// isUniqueViolation проверяет ошибку нарушения уникального ограничения PostgreSQL.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
