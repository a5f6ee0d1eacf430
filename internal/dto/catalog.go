package dto

import "github.com/cTHE0/restaurant/internal/entity"

// CategoryResponse is a menu category as seen by admins.
type CategoryResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SortOrder   int    `json:"order"`
}

// ItemResponse is a menu item as seen by admins.
type ItemResponse struct {
	ID          int64   `json:"id"`
	CategoryID  int64   `json:"category_id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url"`
	Available   bool    `json:"available"`
	SortOrder   int     `json:"order"`
}

// MenuItemResponse is an item on the public menu.
type MenuItemResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url"`
	Available   bool    `json:"available"`
}

// MenuCategoryResponse is a category on the public menu.
type MenuCategoryResponse struct {
	ID          int64              `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Items       []MenuItemResponse `json:"items"`
}

// CreatedResponse acknowledges a created resource.
type CreatedResponse struct {
	ID int64 `json:"id"`
}

// UploadResponse describes a stored image.
type UploadResponse struct {
	ImageURL string `json:"image_url"`
	Filename string `json:"filename"`
}

// Category maps a category entity.
func Category(c *entity.MenuCategory) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		SortOrder:   c.SortOrder,
	}
}

// Categories maps a list of categories.
func Categories(in []*entity.MenuCategory) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(in))
	for _, c := range in {
		out = append(out, Category(c))
	}
	return out
}

// Item maps a menu item entity.
func Item(i *entity.MenuItem) ItemResponse {
	return ItemResponse{
		ID:          i.ID,
		CategoryID:  i.CategoryID,
		Name:        i.Name,
		Description: i.Description,
		Price:       Money(i.Price),
		ImageURL:    i.ImageURL,
		Available:   i.Available,
		SortOrder:   i.SortOrder,
	}
}

// Items maps a list of menu items.
func Items(in []*entity.MenuItem) []ItemResponse {
	out := make([]ItemResponse, 0, len(in))
	for _, i := range in {
		out = append(out, Item(i))
	}
	return out
}

// Menu maps the public menu.
func Menu(in []*entity.MenuCategory) []MenuCategoryResponse {
	out := make([]MenuCategoryResponse, 0, len(in))
	for _, c := range in {
		section := MenuCategoryResponse{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
			Items:       make([]MenuItemResponse, 0, len(c.Items)),
		}
		for _, i := range c.Items {
			section.Items = append(section.Items, MenuItemResponse{
				ID:          i.ID,
				Name:        i.Name,
				Description: i.Description,
				Price:       Money(i.Price),
				ImageURL:    i.ImageURL,
				Available:   i.Available,
			})
		}
		out = append(out, section)
	}
	return out
}
