// Package seed provisions demo data for local environments. Every helper is
// idempotent so repeated startups do not duplicate rows.
package seed

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/manosdelsur/feria/internal/authctx"
	"github.com/manosdelsur/feria/internal/lifecycle"
	productdomain "github.com/manosdelsur/feria/internal/product/domain"
	storedomain "github.com/manosdelsur/feria/internal/store/domain"
	userdomain "github.com/manosdelsur/feria/internal/user/domain"
)

// EnsureDemoData creates a buyer, an artisan with an approved store, and a
// couple of in-stock products.
func EnsureDemoData(conn *gorm.DB, genID *snowflake.Node) error {
	if _, err := ensureUser(conn, genID, "demo-buyer", "buyer@feria.local", authctx.RoleBuyer); err != nil {
		return err
	}

	artisan, err := ensureUser(conn, genID, "demo-artisan", "artisan@feria.local", authctx.RoleArtisan)
	if err != nil {
		return err
	}

	if _, err := ensureUser(conn, genID, "demo-admin", "admin@feria.local", authctx.RoleAdmin); err != nil {
		return err
	}

	store, err := ensureStore(conn, genID, artisan.ID, "Taller del Sur")
	if err != nil {
		return err
	}

	category, err := ensureCategory(conn, genID, "Ceramics")
	if err != nil {
		return err
	}

	products := []struct {
		name  string
		price int64
		stock int64
	}{
		{"Hand-thrown mug", 12500, 10},
		{"Glazed serving bowl", 28000, 4},
	}
	for _, p := range products {
		if err := ensureProduct(conn, genID, store.ID, category.ID, p.name, p.price, p.stock); err != nil {
			return err
		}
	}
	return nil
}

func ensureUser(conn *gorm.DB, genID *snowflake.Node, username, email string, role authctx.Role) (*userdomain.User, error) {
	var user userdomain.User
	err := conn.First(&user, "username = ?", username).Error
	if err == nil {
		return &user, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	user = userdomain.User{
		ID:       genID.Generate().Int64(),
		Username: username,
		Email:    email,
		Role:     role,
		Verified: true,
	}
	if err := conn.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func ensureStore(conn *gorm.DB, genID *snowflake.Node, ownerID int64, name string) (*storedomain.Store, error) {
	var store storedomain.Store
	err := conn.First(&store, "owner_id = ?", ownerID).Error
	if err == nil {
		return &store, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	store = storedomain.Store{
		ID:        genID.Generate().Int64(),
		OwnerID:   ownerID,
		Name:      name,
		Lifecycle: lifecycle.Active,
		Approved:  true,
	}
	if err := conn.Create(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func ensureCategory(conn *gorm.DB, genID *snowflake.Node, name string) (*productdomain.Category, error) {
	categorySlug := slug.Make(name)

	var category productdomain.Category
	err := conn.First(&category, "slug = ?", categorySlug).Error
	if err == nil {
		return &category, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	category = productdomain.Category{
		ID:   genID.Generate().Int64(),
		Name: name,
		Slug: categorySlug,
	}
	if err := conn.Create(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func ensureProduct(conn *gorm.DB, genID *snowflake.Node, storeID, categoryID int64, name string, price, stock int64) error {
	var count int64
	if err := conn.Model(&productdomain.Product{}).
		Where("store_id = ? AND name = ?", storeID, name).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	product := productdomain.Product{
		ID:         genID.Generate().Int64(),
		StoreID:    storeID,
		CategoryID: &categoryID,
		Name:       name,
		Price:      price,
		Currency:   "CLP",
		Stock:      stock,
		Lifecycle:  lifecycle.Active,
	}
	return conn.Create(&product).Error
}
