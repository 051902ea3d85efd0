// Command seed loads the sample users, tours and reviews from dev-data, or wipes every table.
//
//	go run ./cmd/seed --import
//	go run ./cmd/seed --delete
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"trip/internal/config"
	"trip/internal/infra"
	"trip/internal/models/db_models"
	"trip/pkg/utils"
)

// seedUser carries the plain password that db_models.User never decodes.
type seedUser struct {
	ID       uuid.UUID      `json:"id"`
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Role     db_models.Role `json:"role"`
	Photo    string         `json:"photo"`
	Password string         `json:"password"`
}

func main() {
	doImport := flag.Bool("import", false, "import the dev data")
	doDelete := flag.Bool("delete", false, "delete every user, tour, review and booking")
	dir := flag.String("dir", "dev-data", "directory holding users.json, tours.json and reviews.json")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	if *doImport == *doDelete {
		logger.Fatal("pass exactly one of --import or --delete")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	db, err := infra.OpenDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer infra.CloseDatabase(db, logger)

	if *doImport {
		err = importData(db, *dir)
	} else {
		err = deleteData(db)
	}
	if err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
	logger.Info("seed finished", zap.Bool("import", *doImport), zap.Bool("delete", *doDelete))
}

func importData(db *gorm.DB, dir string) error {
	var (
		tours   []db_models.Tour
		users   []seedUser
		reviews []db_models.Review
	)
	if err := readJSON(filepath.Join(dir, "tours.json"), &tours); err != nil {
		return err
	}
	if err := readJSON(filepath.Join(dir, "users.json"), &users); err != nil {
		return err
	}
	if err := readJSON(filepath.Join(dir, "reviews.json"), &reviews); err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for i := range tours {
			if err := tx.Create(&tours[i]).Error; err != nil {
				return fmt.Errorf("tour %q: %w", tours[i].Name, err)
			}
		}
		for _, su := range users {
			hash, err := utils.HashPassword(su.Password)
			if err != nil {
				return err
			}
			u := &db_models.User{Name: su.Name, Email: su.Email, Role: su.Role, Photo: su.Photo, Password: hash}
			u.ID = su.ID
			u.ApplyDefaults()
			if err := tx.Create(u).Error; err != nil {
				return fmt.Errorf("user %q: %w", su.Email, err)
			}
		}
		// each insert fires the review hooks, so tour ratings end up recomputed
		for i := range reviews {
			if err := tx.Create(&reviews[i]).Error; err != nil {
				return fmt.Errorf("review %d: %w", i, err)
			}
		}
		return nil
	})
}

func deleteData(db *gorm.DB) error {
	return db.Session(&gorm.Session{AllowGlobalUpdate: true, SkipHooks: true}).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&db_models.Booking{}, &db_models.Review{}, &db_models.User{}, &db_models.Tour{}} {
			if err := tx.Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func readJSON(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s not found", path)
		}
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
