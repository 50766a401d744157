// Command seed fills an empty database with demo users, menu and tables.
// It is safe to run repeatedly: existing rows are left alone.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"restaurant_pos_backend/internal/config"
	"restaurant_pos_backend/internal/database"
	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/internal/services"
	"restaurant_pos_backend/pkg/utils"

	"github.com/shopspring/decimal"
)

const demoPassword = "password123"

type productSeed struct {
	category    string
	name        string
	description string
	price       int64
	stock       int
}

var (
	userSeeds = []models.CreateUserRequest{
		{Name: "Administrator", Email: "admin@restaurant.com", Role: models.RoleAdmin},
		{Name: "Kasir 1", Email: "cashier@restaurant.com", Role: models.RoleCashier},
		{Name: "Customer 1", Email: "customer1@example.com", Role: models.RoleUser},
		{Name: "Customer 2", Email: "customer2@example.com", Role: models.RoleUser},
	}

	categorySeeds = []models.CategoryRequest{
		{Name: "Makanan Utama", Description: strPtr("Menu makanan utama seperti nasi, ayam, dll")},
		{Name: "Minuman", Description: strPtr("Menu minuman segar dan hangat")},
		{Name: "Snack", Description: strPtr("Menu cemilan dan makanan ringan")},
		{Name: "Dessert", Description: strPtr("Menu penutup dan makanan manis")},
	}

	productSeeds = []productSeed{
		{"Makanan Utama", "Nasi Ayam Bakar", "Nasi putih dengan ayam bakar bumbu kecap, lalapan, dan sambal", 25000, 50},
		{"Makanan Utama", "Nasi Ayam Goreng", "Nasi putih dengan ayam goreng crispy, lalapan, dan sambal", 23000, 45},
		{"Makanan Utama", "Nasi Gudeg", "Nasi putih dengan gudeg, ayam, telur, dan sambal krecek", 20000, 30},
		{"Makanan Utama", "Mie Ayam", "Mie dengan topping ayam, pangsit, dan sayuran", 18000, 40},
		{"Minuman", "Es Teh Manis", "Teh manis dingin yang menyegarkan", 5000, 100},
		{"Minuman", "Es Jeruk", "Jus jeruk segar dengan es batu", 8000, 80},
		{"Minuman", "Kopi Hitam", "Kopi hitam hangat tanpa gula", 7000, 60},
		{"Minuman", "Jus Alpukat", "Jus alpukat segar dengan susu kental manis", 12000, 35},
		{"Snack", "Kerupuk Udang", "Kerupuk udang crispy", 3000, 200},
		{"Snack", "Tahu Goreng", "Tahu goreng dengan bumbu kacang", 8000, 50},
		{"Snack", "Pisang Goreng", "Pisang goreng crispy dengan madu", 10000, 30},
		{"Dessert", "Es Krim Vanilla", "Es krim vanilla dengan topping coklat", 15000, 25},
		{"Dessert", "Puding Coklat", "Puding coklat dengan whipped cream", 12000, 20},
	}
)

func strPtr(s string) *string { return &s }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	utils.InitLogger(cfg.Log.Level, cfg.Log.Pretty)

	ctx := context.Background()
	db, err := database.InitDB(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	uow := repositories.NewUnitOfWork(db)
	productRepo := repositories.NewProductRepository(db)
	movementRepo := repositories.NewInventoryMovementRepository(db)
	tableRepo := repositories.NewTableRepository(db)

	users := services.NewUserService(uow, repositories.NewUserRepository(db))
	catalog := services.NewCatalogService(uow, repositories.NewCategoryRepository(db), productRepo, movementRepo,
		services.NewInventoryLedger(productRepo, movementRepo), cfg.Storage.UploadDir)
	tables := services.NewTableService(uow, tableRepo, repositories.NewOrderRepository(db),
		services.NewTableTracker(tableRepo), nil)

	var adminID int64
	for _, req := range userSeeds {
		req.Password = demoPassword
		user, err := users.CreateUser(ctx, req)
		if skipExisting(err, "user", req.Email) {
			continue
		}
		if req.Role == models.RoleAdmin {
			adminID = user.ID
		}
	}

	if adminID == 0 {
		adminID, err = findAdmin(ctx, users)
		if err != nil {
			log.Fatalf("Looking up admin: %v", err)
		}
	}

	for _, req := range categorySeeds {
		_, err := catalog.CreateCategory(ctx, req)
		skipExisting(err, "category", req.Name)
	}

	if err := seedProducts(ctx, catalog, adminID); err != nil {
		log.Fatalf("Seeding products: %v", err)
	}

	for i := 1; i <= 20; i++ {
		number := fmt.Sprintf("T%02d", i)
		_, err := tables.CreateTable(ctx, models.CreateTableRequest{TableNumber: number, Capacity: 2 + i%5})
		skipExisting(err, "table", number)
	}

	utils.LogInfo("Seeding finished")
}

// findAdmin returns the seeded administrator left by an earlier run.
func findAdmin(ctx context.Context, users services.UserService) (int64, error) {
	email := userSeeds[0].Email
	role := models.RoleAdmin
	found, _, err := users.GetUsers(ctx, models.UserFilters{Search: &email, Role: &role, Page: 1, PageSize: 1})
	if err != nil {
		return 0, err
	}
	if len(found) == 0 {
		return 0, fmt.Errorf("admin %s not found", email)
	}
	return found[0].ID, nil
}

// seedProducts adds the demo menu unless the catalog already has products.
func seedProducts(ctx context.Context, catalog services.CatalogService, actorID int64) error {
	_, total, err := catalog.GetProducts(ctx, models.ProductFilters{Page: 1, PageSize: 1})
	if err != nil {
		return err
	}
	if total > 0 {
		utils.LogInfo("Products present, skipping menu", map[string]interface{}{"count": total})
		return nil
	}

	categories, err := catalog.GetCategories(ctx, false)
	if err != nil {
		return err
	}
	byName := make(map[string]int64, len(categories))
	for _, c := range categories {
		byName[c.Name] = c.ID
	}

	for _, p := range productSeeds {
		categoryID, ok := byName[p.category]
		if !ok {
			return fmt.Errorf("category %q missing", p.category)
		}
		price := decimal.NewFromInt(p.price)
		_, err := catalog.CreateProduct(ctx, actorID, models.CreateProductRequest{
			CategoryID:  categoryID,
			Name:        p.name,
			Description: strPtr(p.description),
			Price:       &price,
			Stock:       p.stock,
		})
		if err != nil {
			return fmt.Errorf("product %q: %w", p.name, err)
		}
	}
	utils.LogInfo("Menu seeded", map[string]interface{}{"products": len(productSeeds)})
	return nil
}

// skipExisting logs and reports whether err means the row was not created.
// Validation failures are taken to be duplicates from an earlier run.
func skipExisting(err error, kind, key string) bool {
	if err == nil {
		utils.LogInfo("Seeded "+kind, map[string]interface{}{"key": key})
		return false
	}
	if errors.Is(err, services.ErrValidation) {
		utils.LogInfo("Skipping existing "+kind, map[string]interface{}{"key": key})
		return true
	}
	log.Fatalf("Seeding %s %s: %v", kind, key, err)
	return true
}
