package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ikkim/store-rating-backend/config"
	"github.com/ikkim/store-rating-backend/internal/app/model"
	"github.com/ikkim/store-rating-backend/internal/app/repository"
	"github.com/ikkim/store-rating-backend/internal/db"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const usage = `Usage:
  seed demo                          seed the demo users, stores and ratings
  seed import <xlsx_file> <email>    import stores (name, address, description) for an owner`

func main() {
	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	switch os.Args[1] {
	case "demo":
		if err := db.Seed(); err != nil {
			log.Fatal("Failed to seed demo data:", err)
		}
		fmt.Println("Demo data ready.")

	case "import":
		if len(os.Args) < 4 {
			log.Fatal(usage)
		}
		if err := importStores(db.GetDB(), os.Args[2], os.Args[3]); err != nil {
			log.Fatal("Import failed:", err)
		}

	default:
		log.Fatal(usage)
	}
}

func importStores(conn *gorm.DB, filePath, ownerEmail string) error {
	userRepo := repository.NewUserRepository(conn)
	storeRepo := repository.NewStoreRepository(conn)

	owner, err := userRepo.FindByEmail(ownerEmail)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("no user with email %s", ownerEmail)
		}
		return err
	}
	if owner.Role != model.RoleStoreOwner && owner.Role != model.RoleAdmin {
		return fmt.Errorf("%s is a %s and cannot own stores", ownerEmail, owner.Role)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	stores, skipped, err := readStoresFromXLSX(filePath, owner.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Stores to import: %d (skipped %d rows)\n", len(stores), skipped)
	if len(stores) == 0 {
		return nil
	}

	if err := storeRepo.BulkCreate(stores); err != nil {
		return fmt.Errorf("bulk create stores: %w", err)
	}

	fmt.Printf("Imported %d stores for %s\n", len(stores), ownerEmail)
	return nil
}

// readStoresFromXLSX reads the first sheet. The header row is skipped and
// columns are name, address and an optional description. Rows missing a
// name or address, and repeated name/address pairs, are skipped.
func readStoresFromXLSX(filePath string, ownerID uint) ([]*model.Store, int, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("no data found in XLSX file")
	}

	var stores []*model.Store
	seen := make(map[string]bool)
	skipped := 0

	for _, row := range rows[1:] {
		name := cell(row, 0)
		address := cell(row, 1)
		if name == "" || address == "" {
			skipped++
			continue
		}

		key := strings.ToLower(name + "|" + address)
		if seen[key] {
			skipped++
			continue
		}
		seen[key] = true

		stores = append(stores, &model.Store{
			Name:        name,
			Address:     address,
			Description: cell(row, 2),
			OwnerID:     ownerID,
		})
	}

	return stores, skipped, nil
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
