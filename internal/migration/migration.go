// Package migration creates the marketplace schema on startup so local and
// self-hosted environments work out of the box.
package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	favoritedomain "github.com/manosdelsur/feria/internal/favorite/domain"
	followdomain "github.com/manosdelsur/feria/internal/follow/domain"
	notifdomain "github.com/manosdelsur/feria/internal/notification/domain"
	orderdomain "github.com/manosdelsur/feria/internal/order/domain"
	productdomain "github.com/manosdelsur/feria/internal/product/domain"
	reviewdomain "github.com/manosdelsur/feria/internal/review/domain"
	storedomain "github.com/manosdelsur/feria/internal/store/domain"
	supportdomain "github.com/manosdelsur/feria/internal/support/domain"
	userdomain "github.com/manosdelsur/feria/internal/user/domain"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

// RunMigrations applies the embedded SQL migrations against postgres.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate builds the schema from the gorm models, used for sqlite where
// the postgres migration files do not apply.
func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&userdomain.User{},
		&storedomain.Store{},
		&productdomain.Category{},
		&productdomain.Product{},
		&orderdomain.Order{},
		&reviewdomain.Review{},
		&reviewdomain.StoreReview{},
		&favoritedomain.Favorite{},
		&followdomain.StoreFollow{},
		&notifdomain.Notification{},
		&supportdomain.SupportTicket{},
	)
}
