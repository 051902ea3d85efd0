package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"trip/internal/models/db_models"
)

type UserRepository interface {
	Query(ctx context.Context) *gorm.DB
	Create(ctx context.Context, user *db_models.User) error
	FindByID(ctx context.Context, id uuid.UUID, preload ...string) (*db_models.User, error)
	FindByEmail(ctx context.Context, email string) (*db_models.User, error)
	FindByResetToken(ctx context.Context, hashedToken string) (*db_models.User, error)
	Update(ctx context.Context, user *db_models.User) error
	// Delete removes the user with their reviews and bookings.
	Delete(ctx context.Context, user *db_models.User) error
}

type userRepository struct {
	crudRepository[db_models.User]
	tx TransactionManager
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{
		crudRepository: newCrudRepository[db_models.User](db, activeUsers),
		tx:             NewTransactionManager(db),
	}
}

func activeUsers(db *gorm.DB) *gorm.DB {
	return db.Where(byColumn("active", true))
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*db_models.User, error) {
	return r.findOne(r.Query(ctx), byColumn("email", email))
}

func (r *userRepository) FindByResetToken(ctx context.Context, hashedToken string) (*db_models.User, error) {
	return r.findOne(r.Query(ctx), byColumn("password_reset_token", hashedToken))
}

func (r *userRepository) Delete(ctx context.Context, user *db_models.User) error {
	return r.tx.RunInTx(ctx, func(txCtx context.Context) error {
		db := GetDB(txCtx, r.db)

		var tourIDs []uuid.UUID
		if err := db.Model(&db_models.Review{}).
			Where("user_id = ?", user.ID).
			Distinct().
			Pluck("tour_id", &tourIDs).Error; err != nil {
			return err
		}

		// ratings are recomputed once per tour below
		noHooks := db.Session(&gorm.Session{SkipHooks: true})
		if err := noHooks.Where("user_id = ?", user.ID).Delete(&db_models.Review{}).Error; err != nil {
			return err
		}
		if err := db.Where("user_id = ?", user.ID).Delete(&db_models.Booking{}).Error; err != nil {
			return err
		}
		for _, tourID := range tourIDs {
			if err := db_models.CalcAverageRatings(db, tourID); err != nil {
				return err
			}
		}
		return db.Delete(user).Error
	})
}
