package database

import (
	"context"
	"fmt"

	"kiosk-service/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type seedCategory struct {
	category    models.Category
	sizes       []models.CategorySize
	ingredients []models.CategoryIngredient
	items       []models.MenuItem
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedData() []seedCategory {
	size := func(name, p string, order int) models.CategorySize {
		return models.CategorySize{Name: name, Price: price(p), DisplayOrder: order, IsActive: true}
	}
	ingredient := func(name, p string, order int) models.CategoryIngredient {
		return models.CategoryIngredient{Name: name, Price: price(p), DisplayOrder: order, IsActive: true}
	}
	menuItem := func(name, desc string, base models.BaseType, p string, ingredients string, order int) models.MenuItem {
		return models.MenuItem{
			Name: name, Description: desc, BaseType: base, Price: price(p),
			Ingredients: datatypes.JSON(ingredients), IsAvailable: true, DisplayOrder: order,
		}
	}

	return []seedCategory{
		{
			category: models.Category{Name: "pizzas", DisplayName: "Pizzas", Icon: "🍕", DisplayOrder: 1, IsActive: true, IsCustomizable: true},
			sizes: []models.CategorySize{
				size("Moyenne", "0", 1),
				size("Grande", "3.00", 2),
			},
			ingredients: []models.CategoryIngredient{
				ingredient("Mozzarella", "1.50", 1),
				ingredient("Jambon", "2.00", 2),
				ingredient("Champignons", "1.00", 3),
			},
			items: []models.MenuItem{
				menuItem("Margherita", "Sauce tomate, mozzarella, basilic", models.BaseTomato, "9.50", `["Sauce tomate","Mozzarella","Basilic"]`, 1),
				menuItem("Reine", "Sauce tomate, mozzarella, jambon, champignons", models.BaseTomato, "11.00", `["Sauce tomate","Mozzarella","Jambon","Champignons"]`, 2),
				menuItem("Savoyarde", "Crème, mozzarella, lardons, pommes de terre, reblochon", models.BaseCream, "13.50", `["Crème","Mozzarella","Lardons","Pommes de terre","Reblochon"]`, 3),
			},
		},
		{
			category: models.Category{Name: "build-your-own", DisplayName: "Composez votre pizza", Icon: "👨‍🍳", DisplayOrder: 2, IsActive: true, IsBuildYourOwn: true},
			sizes: []models.CategorySize{
				size("Moyenne", "8.00", 1),
				size("Grande", "11.00", 2),
			},
			ingredients: []models.CategoryIngredient{
				ingredient("Sauce tomate", "0", 1),
				ingredient("Crème", "0", 2),
				ingredient("Mozzarella", "1.50", 3),
				ingredient("Chorizo", "2.00", 4),
			},
		},
		{
			category: models.Category{Name: "drinks", DisplayName: "Boissons", Icon: "🥤", DisplayOrder: 3, IsActive: true},
			items: []models.MenuItem{
				menuItem("Coca-Cola 33cl", "", models.BaseTomato, "2.50", `[]`, 1),
				menuItem("Eau minérale 50cl", "", models.BaseTomato, "2.00", `[]`, 2),
			},
		},
		{
			category: models.Category{Name: "desserts", DisplayName: "Desserts", Icon: "🍰", DisplayOrder: 4, IsActive: true},
			items: []models.MenuItem{
				menuItem("Tiramisu", "Maison", models.BaseTomato, "4.50", `[]`, 1),
			},
		},
	}
}

// Seed loads the default catalog. It does nothing when categories already exist.
func Seed(ctx context.Context, db *gorm.DB, log *zap.Logger) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Category{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count categories: %w", err)
	}
	if count > 0 {
		log.Info("Catalog already seeded, skipping", zap.Int64("categories", count))
		return nil
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, sc := range seedData() {
			cat := sc.category
			if err := tx.Create(&cat).Error; err != nil {
				return fmt.Errorf("failed to seed category %s: %w", cat.Name, err)
			}
			for _, s := range sc.sizes {
				s.CategoryID = cat.ID
				if err := tx.Create(&s).Error; err != nil {
					return fmt.Errorf("failed to seed size %s: %w", s.Name, err)
				}
			}
			for _, ing := range sc.ingredients {
				ing.CategoryID = cat.ID
				if err := tx.Create(&ing).Error; err != nil {
					return fmt.Errorf("failed to seed ingredient %s: %w", ing.Name, err)
				}
			}
			for _, item := range sc.items {
				item.CategoryID = &cat.ID
				if err := tx.Create(&item).Error; err != nil {
					return fmt.Errorf("failed to seed menu item %s: %w", item.Name, err)
				}
			}
			log.Info("Seeded category", zap.String("category", cat.Name))
		}
		return nil
	})
}
