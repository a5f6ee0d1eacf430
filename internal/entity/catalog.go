package entity

import (
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// MenuCategory groups menu items under a display-ordered heading.
type MenuCategory struct {
	bun.BaseModel `bun:"table:menu_categories,alias:mc"`

	ID          int64  `bun:",pk,autoincrement"`
	Name        string `bun:"name,notnull"`
	Description string `bun:"description"`
	SortOrder   int    `bun:"sort_order,notnull"`

	Items []*MenuItem `bun:"rel:has-many,join:id=category_id"`
}

// MenuItem is a single orderable dish.
type MenuItem struct {
	bun.BaseModel `bun:"table:menu_items,alias:mi"`

	ID          int64           `bun:",pk,autoincrement"`
	CategoryID  int64           `bun:"category_id,notnull"`
	Name        string          `bun:"name,notnull"`
	Description string          `bun:"description"`
	Price       decimal.Decimal `bun:"price,notnull"`
	ImageURL    string          `bun:"image_url"`
	Available   bool            `bun:"available,notnull"`
	SortOrder   int             `bun:"sort_order,notnull"`
}
