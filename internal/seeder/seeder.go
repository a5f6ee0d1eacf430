package seeder

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/cTHE0/restaurant/internal/config"
	"github.com/cTHE0/restaurant/internal/entity"
	catalogrepo "github.com/cTHE0/restaurant/internal/repository/catalog"
	"github.com/cTHE0/restaurant/internal/service/session"
	"github.com/cTHE0/restaurant/pkg/errorbank"
)

//go:embed seed.yaml
var defaultMenu []byte

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Menu is the starter menu document.
type Menu struct {
	Categories []Category `yaml:"categories"`
}

// Category is one seeded category and its dishes.
type Category struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Order       int    `yaml:"order"`
	Items       []Item `yaml:"items"`
}

// Item is one seeded dish. Price is a decimal string.
type Item struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
	Order       int    `yaml:"order"`
}

// ParseMenu decodes a starter menu document.
func ParseMenu(data []byte) (Menu, error) {
	var menu Menu
	if err := yaml.Unmarshal(data, &menu); err != nil {
		return Menu{}, fmt.Errorf("parse seed menu: %w", err)
	}
	for _, cat := range menu.Categories {
		if cat.Name == "" {
			return Menu{}, fmt.Errorf("seed category without name")
		}
		for _, item := range cat.Items {
			if _, err := decimal.NewFromString(item.Price); err != nil {
				return Menu{}, fmt.Errorf("seed item %q: invalid price %q", item.Name, item.Price)
			}
		}
	}
	return menu, nil
}

// Seeder loads the bootstrap admin and the starter menu. Running it twice
// leaves the database unchanged.
type Seeder struct {
	catalog  *catalogrepo.Repository
	sessions *session.Service
	cfg      config.Config
	logger   *zap.Logger
}

// New constructs a Seeder.
func New(catalog *catalogrepo.Repository, sessions *session.Service, cfg config.Config, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{catalog: catalog, sessions: sessions, cfg: cfg, logger: logger}
}

// Run seeds the admin account and the embedded menu.
func (s *Seeder) Run(ctx context.Context) error {
	if err := s.Admin(ctx); err != nil {
		return err
	}
	menu, err := ParseMenu(defaultMenu)
	if err != nil {
		return err
	}
	return s.Menu(ctx, menu)
}

// Admin creates the configured admin unless it already exists.
func (s *Seeder) Admin(ctx context.Context) error {
	username, password := s.cfg.Seed.AdminUsername, s.cfg.Seed.AdminPassword
	if username == "" || password == "" {
		s.logger.Info("no seed admin configured; skipping")
		return nil
	}
	_, err := s.sessions.CreateAdmin(ctx, username, password)
	switch {
	case err == nil:
		s.logger.Info("seeded admin", zap.String("username", username))
		return nil
	case errorbank.IsKind(err, errorbank.KindConflict):
		s.logger.Debug("seed admin already present", zap.String("username", username))
		return nil
	default:
		return fmt.Errorf("seed admin: %w", err)
	}
}

// Menu inserts categories and items that are not present yet, matching by
// name.
func (s *Seeder) Menu(ctx context.Context, menu Menu) error {
	existing, err := s.catalog.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("list categories: %w", err)
	}
	byName := make(map[string]*entity.MenuCategory, len(existing))
	for _, cat := range existing {
		byName[cat.Name] = cat
	}

	items, err := s.catalog.ListItems(ctx)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		seen[itemKey(item.CategoryID, item.Name)] = true
	}

	var addedCategories, addedItems int
	for _, c := range menu.Categories {
		cat, ok := byName[c.Name]
		if !ok {
			cat = &entity.MenuCategory{Name: c.Name, Description: c.Description, SortOrder: c.Order}
			if err := s.catalog.CreateCategory(ctx, cat); err != nil {
				return fmt.Errorf("seed category %q: %w", c.Name, err)
			}
			byName[c.Name] = cat
			addedCategories++
		}

		for _, i := range c.Items {
			if seen[itemKey(cat.ID, i.Name)] {
				continue
			}
			item := &entity.MenuItem{
				CategoryID:  cat.ID,
				Name:        i.Name,
				Description: i.Description,
				Price:       decimal.RequireFromString(i.Price).Round(2),
				Available:   true,
				SortOrder:   i.Order,
			}
			if err := s.catalog.CreateItem(ctx, item); err != nil {
				return fmt.Errorf("seed item %q: %w", i.Name, err)
			}
			seen[itemKey(cat.ID, i.Name)] = true
			addedItems++
		}
	}

	s.logger.Info("seeded menu", zap.Int("categories", addedCategories), zap.Int("items", addedItems))
	return nil
}

func itemKey(categoryID int64, name string) string {
	return fmt.Sprintf("%d/%s", categoryID, name)
}
