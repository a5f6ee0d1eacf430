package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// AdminUser is an operator allowed to manage the catalog and orders.
type AdminUser struct {
	bun.BaseModel `bun:"table:admin_users,alias:au"`

	ID           int64     `bun:",pk,autoincrement"`
	Username     string    `bun:"username,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	IsActive     bool      `bun:"is_active,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}
