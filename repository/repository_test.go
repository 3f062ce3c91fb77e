package repository_test

import (
	"context"
	"testing"
	"time"

	"kiosk-service/database"
	"kiosk-service/models"
	"kiosk-service/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(database.MemoryPath, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	_, err = database.Migrate(context.Background(), db, zap.NewNop())
	require.NoError(t, err)
	return db
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func strPtr(s string) *string { return &s }

func seedCategory(t *testing.T, db *gorm.DB, name string, customizable bool) *models.Category {
	t.Helper()
	c := &models.Category{Name: name, DisplayName: name, IsActive: true, IsCustomizable: customizable}
	require.NoError(t, db.Create(c).Error)
	return c
}

func seedMenuItem(t *testing.T, db *gorm.DB, name, price string, categoryID *uint) *models.MenuItem {
	t.Helper()
	m := &models.MenuItem{
		Name: name, BaseType: models.BaseTomato, Price: dec(price), IsAvailable: true,
		CategoryID: categoryID, Ingredients: datatypes.JSON(`[]`),
	}
	require.NoError(t, db.Create(m).Error)
	return m
}

// --- Categories ---

func TestCategoryRepository_LoadOptions(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewGormCategoryRepository(db)
	ctx := context.Background()

	pizzas := seedCategory(t, db, "pizzas", true)
	drinks := seedCategory(t, db, "drinks", false)
	require.NoError(t, repo.CreateSize(ctx, &models.CategorySize{CategoryID: pizzas.ID, Name: "Grande", Price: dec("3"), IsActive: true, DisplayOrder: 2}))
	require.NoError(t, repo.CreateSize(ctx, &models.CategorySize{CategoryID: pizzas.ID, Name: "Moyenne", Price: dec("0"), IsActive: true, DisplayOrder: 1}))
	require.NoError(t, repo.CreateSize(ctx, &models.CategorySize{CategoryID: pizzas.ID, Name: "XXL", Price: dec("6"), IsActive: false, DisplayOrder: 3}))

	categories, err := repo.FindAll(ctx, nil)
	require.NoError(t, err)
	require.Len(t, categories, 2)

	require.NoError(t, repo.LoadOptions(ctx, categories, true))
	byName := map[string]models.Category{}
	for _, c := range categories {
		byName[c.Name] = c
	}
	require.Len(t, byName["pizzas"].Sizes, 2)
	assert.Equal(t, "Moyenne", byName["pizzas"].Sizes[0].Name)
	assert.Empty(t, byName["drinks"].Sizes)
	assert.NotNil(t, byName["drinks"].Ingredients)

	all := []models.Category{*pizzas, *drinks}
	require.NoError(t, repo.LoadOptions(ctx, all, false))
	assert.Len(t, all[0].Sizes, 3)
}

func TestCategoryRepository_FindAllActiveFilter(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewGormCategoryRepository(db)
	seedCategory(t, db, "pizzas", false)
	hidden := seedCategory(t, db, "seasonal", false)
	require.NoError(t, repo.Update(context.Background(), hidden.ID, map[string]interface{}{"is_active": false}))

	active := true
	categories, err := repo.FindAll(context.Background(), &active)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, "pizzas", categories[0].Name)
}

func TestCategoryRepository_UpdateUnknown(t *testing.T) {
	repo := repository.NewGormCategoryRepository(newTestDB(t))
	err := repo.Update(context.Background(), 42, map[string]interface{}{"icon": "x"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCategoryRepository_DeleteRemovesOptions(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewGormCategoryRepository(db)
	ctx := context.Background()

	cat := seedCategory(t, db, "byo", true)
	require.NoError(t, repo.CreateSize(ctx, &models.CategorySize{CategoryID: cat.ID, Name: "M", Price: dec("8"), IsActive: true}))
	require.NoError(t, repo.CreateIngredient(ctx, &models.CategoryIngredient{CategoryID: cat.ID, Name: "Olives", Price: dec("1"), IsActive: true}))

	require.NoError(t, repo.Delete(ctx, cat.ID))

	var sizes, ingredients int64
	db.Model(&models.CategorySize{}).Count(&sizes)
	db.Model(&models.CategoryIngredient{}).Count(&ingredients)
	assert.Zero(t, sizes)
	assert.Zero(t, ingredients)
	assert.ErrorIs(t, repo.Delete(ctx, cat.ID), gorm.ErrRecordNotFound)
}

func TestCategoryRepository_CountMenuItems(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewGormCategoryRepository(db)
	cat := seedCategory(t, db, "pizzas", false)
	seedMenuItem(t, db, "Margherita", "9.50", &cat.ID)

	n, err := repo.CountMenuItems(context.Background(), cat.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestCategoryRepository_SizeScopedToCategory(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewGormCategoryRepository(db)
	ctx := context.Background()
	a := seedCategory(t, db, "a", true)
	b := seedCategory(t, db, "b", true)
	size := &models.CategorySize{CategoryID: a.ID, Name: "M", Price: dec("1"), IsActive: true}
	require.NoError(t, repo.CreateSize(ctx, size))

	_, err := repo.FindSize(ctx, b.ID, size.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	found, err := repo.FindSize(ctx, a.ID, size.ID)
	require.NoError(t, err)
	require.NoError(t, repo.UpdateSize(ctx, found, map[string]interface{}{"price": dec("2.5")}))
	assert.Equal(t, "2.50", found.Price.StringFixed(2))
}

// --- Menu ---

func TestMenuRepository_FindAllWithCategory(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewGormMenuRepository(db)
	cat := seedCategory(t, db, "pizzas", false)
	seedMenuItem(t, db, "Margherita", "9.50", &cat.ID)
	off := seedMenuItem(t, db, "Calzone", "12", nil)
	require.NoError(t, db.Model(off).Update("is_available", false).Error)

	items, err := repo.FindAll(context.Background(), models.MenuFilter{})
	require.NoError(t, err)
	require.Len(t, items, 2)

	available := true
	items, err = repo.FindAll(context.Background(), models.MenuFilter{Available: &available})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Margherita", items[0].Name)
	require.NotNil(t, items[0].CategoryName)
	assert.Equal(t, "pizzas", *items[0].CategoryName)

	items, err = repo.FindAll(context.Background(), models.MenuFilter{CategoryID: &cat.ID, BaseType: "cream"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestMenuRepository_FindByIDs(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewGormMenuRepository(db)
	m := seedMenuItem(t, db, "Margherita", "9.50", nil)

	found, err := repo.FindByIDs(context.Background(), []uint{m.ID, m.ID + 100})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "9.50", found[m.ID].Price.StringFixed(2))
}

func TestMenuRepository_UpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewGormMenuRepository(db)
	ctx := context.Background()
	m := seedMenuItem(t, db, "Margherita", "9.50", nil)

	require.NoError(t, repo.Update(ctx, m, map[string]interface{}{"name": "Margherita DOP"}))
	assert.Equal(t, "Margherita DOP", m.Name)

	require.NoError(t, repo.Delete(ctx, m.ID))
	assert.ErrorIs(t, repo.Delete(ctx, m.ID), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Update(ctx, m, map[string]interface{}{"name": "x"}), gorm.ErrRecordNotFound)
}

// --- Orders ---

func newOrder(deviceID string, status models.OrderStatus, createdAt time.Time, items ...models.OrderItem) *models.Order {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}
	return &models.Order{DeviceID: deviceID, Status: status, CreatedAt: createdAt, TotalAmount: total, Items: items}
}

func TestOrderRepository_NumbersPerDay(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewGormOrderRepository(db)
	ctx := context.Background()
	day1 := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	o1 := newOrder("kiosk-1", models.StatusPending, day1)
	o2 := newOrder("kiosk-2", models.StatusPending, day1.Add(time.Hour))
	o3 := newOrder("kiosk-1", models.StatusPending, day1.Add(24*time.Hour))
	require.NoError(t, repo.CreateWithNumber(ctx, o1))
	require.NoError(t, repo.CreateWithNumber(ctx, o2))
	require.NoError(t, repo.CreateWithNumber(ctx, o3))

	assert.Equal(t, "1", o1.OrderNumber)
	assert.Equal(t, "2", o2.OrderNumber)
	assert.Equal(t, "1", o3.OrderNumber)
}

func TestOrderRepository_CreateWithItemsAndCustomizations(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewGormOrderRepository(db)
	ctx := context.Background()
	m := seedMenuItem(t, db, "Margherita", "9.50", nil)

	order := newOrder("kiosk-1", models.StatusPending, time.Now(),
		models.OrderItem{
			MenuItemID: &m.ID, Quantity: 2, PriceAtOrder: dec("11"), Subtotal: dec("22"),
			Customizations: []models.OrderItemCustomization{
				{Type: models.CustomizationSize, Name: "Grande", Price: dec("1.5")},
				{Type: models.CustomizationIngredient, Name: "Olives", Price: dec("0")},
			},
		},
		models.OrderItem{Name: strPtr("Custom"), Quantity: 1, PriceAtOrder: dec("12"), Subtotal: dec("12")},
	)
	require.NoError(t, repo.CreateWithNumber(ctx, order))

	loaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, "34.00", loaded.TotalAmount.StringFixed(2))
	require.NotNil(t, loaded.Items[0].MenuItem)
	assert.Equal(t, "Margherita", loaded.Items[0].MenuItem.Name)
	assert.Len(t, loaded.Items[0].Customizations, 2)
	assert.Nil(t, loaded.Items[1].MenuItem)
}

func TestOrderRepository_FindAllFilters(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewGormOrderRepository(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.CreateWithNumber(ctx, newOrder("kiosk-1", models.StatusPending, now.Add(-2*time.Minute))))
	require.NoError(t, repo.CreateWithNumber(ctx, newOrder("kiosk-2", models.StatusReady, now.Add(-time.Minute))))
	require.NoError(t, repo.CreateWithNumber(ctx, newOrder("kiosk-1", models.StatusReady, now)))

	orders, err := repo.FindAll(ctx, models.OrderFilter{Status: "ready"})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "kiosk-1", orders[0].DeviceID)

	orders, err = repo.FindAll(ctx, models.OrderFilter{DeviceID: "kiosk-1", Limit: 1})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, models.StatusReady, orders[0].Status)
}

func TestOrderRepository_Transition(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewGormOrderRepository(db)
	ctx := context.Background()
	order := newOrder("kiosk-1", models.StatusPending, time.Now())
	require.NoError(t, repo.CreateWithNumber(ctx, order))

	ok, err := repo.Transition(ctx, order.ID, models.StatusPending, map[string]interface{}{
		"status": models.StatusConfirmed, "payment_method": models.PaymentCash,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Transition(ctx, order.ID, models.StatusPending, map[string]interface{}{"status": models.StatusCancelled})
	require.NoError(t, err)
	assert.False(t, ok)

	loaded, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, loaded.Status)
	require.NotNil(t, loaded.PaymentMethod)
	assert.Equal(t, models.PaymentCash, *loaded.PaymentMethod)
}

func TestOrderRepository_DeleteTerminalBefore(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewGormOrderRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()
	old := now.Add(-6 * time.Hour)

	line := func() models.OrderItem {
		return models.OrderItem{
			Name: strPtr("Custom"), Quantity: 1, PriceAtOrder: dec("5"), Subtotal: dec("5"),
			Customizations: []models.OrderItemCustomization{{Type: models.CustomizationSize, Name: "M", Price: dec("0")}},
		}
	}
	oldCompleted := newOrder("k", models.StatusCompleted, old, line())
	oldCancelled := newOrder("k", models.StatusCancelled, old, line())
	oldPending := newOrder("k", models.StatusPending, old, line())
	recentCompleted := newOrder("k", models.StatusCompleted, now.Add(-time.Hour), line())
	for _, o := range []*models.Order{oldCompleted, oldCancelled, oldPending, recentCompleted} {
		require.NoError(t, repo.CreateWithNumber(ctx, o))
	}

	deleted, err := repo.DeleteTerminalBefore(ctx, now.Add(-5*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var orders, items, customizations int64
	db.Model(&models.Order{}).Count(&orders)
	db.Model(&models.OrderItem{}).Count(&items)
	db.Model(&models.OrderItemCustomization{}).Count(&customizations)
	assert.Equal(t, int64(2), orders)
	assert.Equal(t, int64(2), items)
	assert.Equal(t, int64(2), customizations)

	_, err = repo.FindByID(ctx, oldCompleted.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = repo.FindByID(ctx, oldPending.ID)
	assert.NoError(t, err)
}

// --- Devices ---

func TestDeviceRepository_HeartbeatAndSweep(t *testing.T) {
	repo := repository.NewGormDeviceRepository(newTestDB(t))
	ctx := context.Background()
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Heartbeat(ctx, "kiosk-1", models.DeviceKiosk, t0))
	require.NoError(t, repo.Heartbeat(ctx, "kitchen-1", models.DeviceKitchen, t0.Add(20*time.Second)))

	n, err := repo.MarkStale(ctx, t0.Add(35*time.Second).Add(-30*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	d, err := repo.FindByID(ctx, "kiosk-1")
	require.NoError(t, err)
	assert.Equal(t, models.DeviceOffline, d.Status)

	require.NoError(t, repo.Heartbeat(ctx, "kiosk-1", models.DeviceKiosk, t0.Add(40*time.Second)))
	d, err = repo.FindByID(ctx, "kiosk-1")
	require.NoError(t, err)
	assert.Equal(t, models.DeviceOnline, d.Status)

	devices, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "kiosk-1", devices[0].DeviceID)
}
