package services_test

import (
	"context"
	"net/http"
	"testing"

	"kiosk-service/models"
	"kiosk-service/repository"
	"kiosk-service/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

func newMenuService(t *testing.T) (services.MenuService, *recordingBroadcaster, *memoryImages, repository.CategoryRepository) {
	db := newTestDB(t)
	images := newMemoryImages()
	rec := &recordingBroadcaster{}
	categories := repository.NewGormCategoryRepository(db)
	svc := services.NewMenuService(repository.NewGormMenuRepository(db), categories, images, noCache, rec, zap.NewNop())
	return svc, rec, images, categories
}

func TestCreateMenuItem_Defaults(t *testing.T) {
	svc, rec, _, _ := newMenuService(t)

	item, svcErr := svc.CreateMenuItem(context.Background(), models.MenuItemRequest{
		Name: strPtr("Margherita"), Price: dec("9.50"),
	}, nil)
	require.Nil(t, svcErr)
	assert.Equal(t, models.BaseTomato, item.BaseType)
	assert.True(t, item.IsAvailable)
	assert.JSONEq(t, `[]`, string(item.Ingredients))
	assert.Nil(t, item.ImageURL)

	events := rec.byEvent(models.EventMenuItemUpdated)
	require.Len(t, events, 1)
	assert.Equal(t, []string{models.RoomAllKiosks}, events[0].Rooms)
}

func TestCreateMenuItem_Validation(t *testing.T) {
	svc, _, images, _ := newMenuService(t)
	ctx := context.Background()

	_, svcErr := svc.CreateMenuItem(ctx, models.MenuItemRequest{Name: strPtr("No price")}, nil)
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusBadRequest, svcErr.StatusCode)
	assert.Equal(t, "Name and price are required", svcErr.Message)

	_, svcErr = svc.CreateMenuItem(ctx, models.MenuItemRequest{Name: strPtr("X"), Price: dec("1"), CategoryID: uintPtr(42)}, upload(t, "x.png"))
	require.NotNil(t, svcErr)
	assert.Equal(t, "Category not found", svcErr.Message)
	assert.Equal(t, 0, images.count())

	bad := models.BaseType("bbq")
	_, svcErr = svc.CreateMenuItem(ctx, models.MenuItemRequest{Name: strPtr("X"), Price: dec("1"), BaseType: &bad}, nil)
	require.NotNil(t, svcErr)

	_, svcErr = svc.CreateMenuItem(ctx, models.MenuItemRequest{Name: strPtr("X"), Price: dec("1"), Ingredients: datatypes.JSON(`{"a":1}`)}, nil)
	require.NotNil(t, svcErr)
}

func TestUpdateMenuItem_ReplacesImage(t *testing.T) {
	svc, _, images, _ := newMenuService(t)
	ctx := context.Background()

	item, svcErr := svc.CreateMenuItem(ctx, models.MenuItemRequest{
		Name: strPtr("Regina"), Price: dec("11"), Ingredients: datatypes.JSON(`["ham","mushrooms"]`),
	}, upload(t, "regina.jpg"))
	require.Nil(t, svcErr)
	first := *item.ImageURL

	item, svcErr = svc.UpdateMenuItem(ctx, item.ID, models.MenuItemRequest{Price: dec("11.50")}, nil)
	require.Nil(t, svcErr)
	assert.Equal(t, first, *item.ImageURL)
	assert.Equal(t, "11.50", item.Price.StringFixed(2))
	assert.Equal(t, "Regina", item.Name)

	item, svcErr = svc.UpdateMenuItem(ctx, item.ID, models.MenuItemRequest{}, upload(t, "regina2.jpg"))
	require.Nil(t, svcErr)
	assert.NotEqual(t, first, *item.ImageURL)
	assert.False(t, images.has(first))
	assert.True(t, images.has(*item.ImageURL))
	assert.JSONEq(t, `["ham","mushrooms"]`, string(item.Ingredients))

	_, svcErr = svc.UpdateMenuItem(ctx, 999, models.MenuItemRequest{}, nil)
	require.NotNil(t, svcErr)
	assert.Equal(t, "Menu item not found", svcErr.Message)
}

func TestDeleteMenuItem_RemovesImage(t *testing.T) {
	svc, rec, images, _ := newMenuService(t)
	ctx := context.Background()

	item, _ := svc.CreateMenuItem(ctx, models.MenuItemRequest{Name: strPtr("Calzone"), Price: dec("12")}, upload(t, "c.webp"))
	require.Equal(t, 1, images.count())

	require.Nil(t, svc.DeleteMenuItem(ctx, item.ID))
	assert.Equal(t, 0, images.count())
	assert.Len(t, rec.byEvent(models.EventMenuItemUpdated), 2)

	svcErr := svc.DeleteMenuItem(ctx, item.ID)
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusNotFound, svcErr.StatusCode)
}

func TestDeleteMenuItem_WithoutImage(t *testing.T) {
	svc, _, images, _ := newMenuService(t)
	item, _ := svc.CreateMenuItem(context.Background(), models.MenuItemRequest{Name: strPtr("Tiramisu"), Price: dec("5")}, nil)
	require.Nil(t, svc.DeleteMenuItem(context.Background(), item.ID))
	assert.Equal(t, 0, images.count())
}

func TestSetAvailability(t *testing.T) {
	svc, rec, _, _ := newMenuService(t)
	ctx := context.Background()
	item, _ := svc.CreateMenuItem(ctx, models.MenuItemRequest{Name: strPtr("4 Fromages"), Price: dec("12")}, nil)

	updated, svcErr := svc.SetAvailability(ctx, item.ID, false)
	require.Nil(t, svcErr)
	assert.False(t, updated.IsAvailable)

	off := rec.byEvent(models.EventMenuItemUnavailable)
	require.Len(t, off, 1)
	assert.Equal(t, models.AvailabilityEvent{ItemID: item.ID, ItemName: "4 Fromages"}, off[0].Payload)

	_, svcErr = svc.SetAvailability(ctx, item.ID, true)
	require.Nil(t, svcErr)
	assert.Len(t, rec.byEvent(models.EventMenuItemAvailable), 1)

	_, svcErr = svc.SetAvailability(ctx, 999, true)
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusNotFound, svcErr.StatusCode)
}

func TestListMenu_Filters(t *testing.T) {
	svc, _, _, categories := newMenuService(t)
	ctx := context.Background()
	cat := &models.Category{Name: "pizzas", DisplayName: "Pizzas", Icon: "pizza", IsActive: true}
	require.NoError(t, categories.Create(ctx, cat))

	cream := models.BaseCream
	_, svcErr := svc.CreateMenuItem(ctx, models.MenuItemRequest{Name: strPtr("Margherita"), Price: dec("9"), CategoryID: &cat.ID}, nil)
	require.Nil(t, svcErr)
	_, svcErr = svc.CreateMenuItem(ctx, models.MenuItemRequest{Name: strPtr("Savoyarde"), Price: dec("13"), BaseType: &cream, IsAvailable: boolPtr(false)}, nil)
	require.Nil(t, svcErr)

	items, svcErr := svc.ListMenu(ctx, models.MenuFilter{Available: boolPtr(true)})
	require.Nil(t, svcErr)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].CategoryName)
	assert.Equal(t, "Pizzas", *items[0].CategoryName)
	assert.Equal(t, "pizza", *items[0].CategoryIcon)

	items, svcErr = svc.ListMenu(ctx, models.MenuFilter{BaseType: "cream"})
	require.Nil(t, svcErr)
	require.Len(t, items, 1)
	assert.Equal(t, "Savoyarde", items[0].Name)
	assert.Nil(t, items[0].CategoryName)
}
