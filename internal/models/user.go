package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// User описывает сущность пользователя платформы.
type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	Username     string     `db:"username" json:"username"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// Profile описывает публичный профиль пользователя.
type Profile struct {
	UserID          uuid.UUID      `db:"user_id" json:"user_id"`
	DisplayName     string         `db:"display_name" json:"display_name"`
	Bio             *string        `db:"bio" json:"bio,omitempty"`
	HourlyRate      *int64         `db:"hourly_rate" json:"hourly_rate,omitempty"`
	ExperienceLevel string         `db:"experience_level" json:"experience_level"`
	Skills          pq.StringArray `db:"skills" json:"skills"`
	Location        *string        `db:"location" json:"location,omitempty"`
	AvatarURI       *string        `db:"avatar_uri" json:"avatar_uri,omitempty"`
	Website         *string        `db:"website" json:"website,omitempty"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// Session представляет сохранённую сессию пользователя.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	RefreshToken string    `db:"refresh_token" json:"refresh_token"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Review описывает отзыв участника о втором участнике завершённого заказа.
type Review struct {
	ID         uuid.UUID `db:"id" json:"id"`
	JobID      uuid.UUID `db:"job_id" json:"job_id"`
	ReviewerID uuid.UUID `db:"reviewer_id" json:"reviewer_id"`
	ReviewedID uuid.UUID `db:"reviewed_id" json:"reviewed_id"`
	Rating     int       `db:"rating" json:"rating"`
	Comment    *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// PublicProfileStats содержит агрегированную статистику профиля.
type PublicProfileStats struct {
	TotalJobs     int     `json:"total_jobs"`
	CompletedJobs int     `json:"completed_jobs"`
	AverageRating float64 `json:"average_rating"`
	TotalReviews  int     `json:"total_reviews"`
}
