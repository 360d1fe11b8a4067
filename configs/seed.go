package configs

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"caketime/entity"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// SeedAdmin creates the first admin from ADMIN_EMAIL/ADMIN_PASSWORD.
func SeedAdmin(db *gorm.DB, cfg *Config, log *zap.Logger) error {
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	if email == "" || cfg.AdminPassword == "" {
		log.Warn("skip seeding admin: missing ADMIN_EMAIL/ADMIN_PASSWORD")
		return nil
	}

	var count int64
	if err := db.Model(&entity.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Info("admin already exists", zap.String("email", email))
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := entity.User{
		Name:     "Admin",
		Email:    email,
		Password: string(hash),
		Role:     entity.RoleAdmin,
	}
	return db.Create(&admin).Error
}

type catalogFile struct {
	Products []catalogProduct `yaml:"products"`
}

type catalogProduct struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Price       string   `yaml:"price"`
	Category    string   `yaml:"category"`
	Flavor      string   `yaml:"flavor"`
	Occasion    string   `yaml:"occasion"`
	Images      []string `yaml:"images"`
	Tags        []string `yaml:"tags"`
	Eggless     bool     `yaml:"eggless"`
	Featured    bool     `yaml:"featured"`
	OutOfStock  bool     `yaml:"outOfStock"`
}

// ParseCatalog decodes a YAML product catalog.
func ParseCatalog(data []byte) ([]entity.Product, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	out := make([]entity.Product, 0, len(f.Products))
	for i, p := range f.Products {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("product %d: name is required", i)
		}
		price, err := decimal.NewFromString(p.Price)
		if err != nil || !price.IsPositive() {
			return nil, fmt.Errorf("product %q: invalid price %q", p.Name, p.Price)
		}
		cat := entity.Category(strings.ToLower(p.Category))
		if !cat.Valid() {
			return nil, fmt.Errorf("product %q: unknown category %q", p.Name, p.Category)
		}
		out = append(out, entity.Product{
			Name:        p.Name,
			Description: p.Description,
			Price:       price,
			Category:    cat,
			Flavor:      p.Flavor,
			Occasion:    p.Occasion,
			Images:      p.Images,
			Tags:        p.Tags,
			Eggless:     p.Eggless,
			Featured:    p.Featured,
			InStock:     !p.OutOfStock,
		})
	}
	return out, nil
}

// SeedCatalog inserts products from a YAML file, skipping names that exist.
func SeedCatalog(db *gorm.DB, path string, log *zap.Logger) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	products, err := ParseCatalog(data)
	if err != nil {
		return 0, err
	}

	created := 0
	for i := range products {
		p := products[i]
		var existing entity.Product
		err := db.Where("name = ?", p.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, err
		}
		if err := db.Create(&p).Error; err != nil {
			return created, err
		}
		created++
	}
	log.Info("catalog seeded", zap.Int("created", created), zap.Int("total", len(products)))
	return created, nil
}
