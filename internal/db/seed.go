package db

import (
	"fmt"

	"github.com/ikkim/store-rating-backend/internal/app/model"
	"github.com/ikkim/store-rating-backend/pkg/logger"
	"github.com/ikkim/store-rating-backend/pkg/util"
	"gorm.io/gorm"
)

type seedUser struct {
	name     string
	email    string
	password string
	role     model.Role
}

var demoUsers = []seedUser{
	{"Admin User", "admin@example.com", "admin123", model.RoleAdmin},
	{"Store Owner", "owner@example.com", "owner123", model.RoleStoreOwner},
	{"Normal User", "user@example.com", "user123", model.RoleNormalUser},
	{"Another User", "user2@example.com", "user123", model.RoleNormalUser},
}

var demoStores = []model.Store{
	{Name: "Tech Store", Description: "A store selling the latest tech gadgets", Address: "123 Tech St, Tech City"},
	{Name: "Book Store", Description: "A store with a wide range of books", Address: "456 Book St, Book City"},
}

// Seed loads the demo data set into the global connection
func Seed() error {
	return SeedDemoData(DB)
}

// SeedDemoData inserts demo users, stores and ratings. It does nothing when
// an admin account already exists.
func SeedDemoData(db *gorm.DB) error {
	var admins int64
	if err := db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&admins).Error; err != nil {
		return err
	}
	if admins > 0 {
		logger.Info("Demo data already seeded, skipping...", map[string]interface{}{
			"existing_admins": admins,
		})
		return nil
	}

	logger.Info("Seeding demo data...")

	return db.Transaction(func(tx *gorm.DB) error {
		users := make(map[string]*model.User, len(demoUsers))
		for _, su := range demoUsers {
			hash, err := util.HashPassword(su.password)
			if err != nil {
				return fmt.Errorf("hash password for %s: %w", su.email, err)
			}
			u := &model.User{Name: su.name, Email: su.email, PasswordHash: hash, Role: su.role}
			if err := tx.Create(u).Error; err != nil {
				return err
			}
			users[su.email] = u
		}

		owner := users["owner@example.com"]
		stores := make([]*model.Store, 0, len(demoStores))
		for _, s := range demoStores {
			store := s
			store.OwnerID = owner.ID
			if err := tx.Create(&store).Error; err != nil {
				return err
			}
			stores = append(stores, &store)
		}

		ratings := []model.Rating{
			{Score: 5, Comment: "Great tech products and service!", UserID: users["user@example.com"].ID, StoreID: stores[0].ID},
			{Score: 4, Comment: "Good selection of books", UserID: users["user@example.com"].ID, StoreID: stores[1].ID},
			{Score: 3, Comment: "Average experience, could be better", UserID: users["user2@example.com"].ID, StoreID: stores[0].ID},
		}
		if err := tx.Create(&ratings).Error; err != nil {
			return err
		}

		logger.Info("Demo data seeded successfully", map[string]interface{}{
			"users":   len(users),
			"stores":  len(stores),
			"ratings": len(ratings),
		})
		return nil
	})
}
