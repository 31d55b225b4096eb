package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PortfolioItem описывает работу в портфолио фрилансера.
// Медиа хранится вне платформы, здесь только ссылка.
type PortfolioItem struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	UserID      uuid.UUID      `db:"user_id" json:"user_id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	URI         *string        `db:"uri" json:"uri,omitempty"`
	Skills      pq.StringArray `db:"skills" json:"skills"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}
