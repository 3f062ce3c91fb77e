package controllers_test

import (
	"context"
	"mime/multipart"

	"kiosk-service/models"
	"kiosk-service/printer"
	"kiosk-service/services"
)

// ---- concrete mock implementing services.MenuService ----

type mockMenuSvc struct {
	items     []models.MenuItem
	item      *models.MenuItem
	err       *services.ServiceError
	lastReq   models.MenuItemRequest
	lastImage *multipart.FileHeader
	filter    models.MenuFilter
	available *bool
}

func (m *mockMenuSvc) ListMenu(_ context.Context, f models.MenuFilter) ([]models.MenuItem, *services.ServiceError) {
	m.filter = f
	return m.items, m.err
}
func (m *mockMenuSvc) GetMenuItem(context.Context, uint) (*models.MenuItem, *services.ServiceError) {
	return m.item, m.err
}
func (m *mockMenuSvc) CreateMenuItem(_ context.Context, req models.MenuItemRequest, img *multipart.FileHeader) (*models.MenuItem, *services.ServiceError) {
	m.lastReq, m.lastImage = req, img
	return m.item, m.err
}
func (m *mockMenuSvc) UpdateMenuItem(_ context.Context, _ uint, req models.MenuItemRequest, img *multipart.FileHeader) (*models.MenuItem, *services.ServiceError) {
	m.lastReq, m.lastImage = req, img
	return m.item, m.err
}
func (m *mockMenuSvc) DeleteMenuItem(context.Context, uint) *services.ServiceError { return m.err }
func (m *mockMenuSvc) SetAvailability(_ context.Context, id uint, available bool) (*models.MenuItem, *services.ServiceError) {
	m.available = &available
	if m.err != nil {
		return nil, m.err
	}
	return &models.MenuItem{ID: id, IsAvailable: available}, nil
}

// ---- concrete mock implementing services.CategoryService ----

type mockCategorySvc struct {
	categories []models.Category
	category   *models.Category
	size       *models.CategorySize
	ingredient *models.CategoryIngredient
	err        *services.ServiceError
	active     *bool
	created    models.CreateCategoryRequest
	option     models.OptionRequest
	image      *multipart.FileHeader
}

func (m *mockCategorySvc) ListCategories(_ context.Context, active *bool) ([]models.Category, *services.ServiceError) {
	m.active = active
	return m.categories, m.err
}
func (m *mockCategorySvc) GetCategory(context.Context, uint) (*models.Category, *services.ServiceError) {
	return m.category, m.err
}
func (m *mockCategorySvc) CreateCategory(_ context.Context, req models.CreateCategoryRequest) (*models.Category, *services.ServiceError) {
	m.created = req
	return m.category, m.err
}
func (m *mockCategorySvc) UpdateCategory(context.Context, uint, models.UpdateCategoryRequest) (*models.Category, *services.ServiceError) {
	return m.category, m.err
}
func (m *mockCategorySvc) DeleteCategory(context.Context, uint) *services.ServiceError { return m.err }
func (m *mockCategorySvc) CreateSize(_ context.Context, _ uint, req models.OptionRequest) (*models.CategorySize, *services.ServiceError) {
	m.option = req
	return m.size, m.err
}
func (m *mockCategorySvc) UpdateSize(_ context.Context, _, _ uint, req models.OptionRequest) (*models.CategorySize, *services.ServiceError) {
	m.option = req
	return m.size, m.err
}
func (m *mockCategorySvc) DeleteSize(context.Context, uint, uint) *services.ServiceError { return m.err }
func (m *mockCategorySvc) CreateIngredient(_ context.Context, _ uint, req models.OptionRequest, img *multipart.FileHeader) (*models.CategoryIngredient, *services.ServiceError) {
	m.option, m.image = req, img
	return m.ingredient, m.err
}
func (m *mockCategorySvc) UpdateIngredient(_ context.Context, _, _ uint, req models.OptionRequest, img *multipart.FileHeader) (*models.CategoryIngredient, *services.ServiceError) {
	m.option, m.image = req, img
	return m.ingredient, m.err
}
func (m *mockCategorySvc) DeleteIngredient(context.Context, uint, uint) *services.ServiceError {
	return m.err
}

// ---- concrete mock implementing services.OrderService ----

type mockOrderSvc struct {
	order    *models.OrderResponse
	orders   []models.OrderResponse
	cleanup  *models.CleanupResult
	err      *services.ServiceError
	created  models.CreateOrderRequest
	filter   models.OrderFilter
	status   models.OrderStatus
	payment  models.PaymentMethod
	gotOrder uint
}

func (m *mockOrderSvc) CreateOrder(_ context.Context, req models.CreateOrderRequest) (*models.OrderResponse, *services.ServiceError) {
	m.created = req
	return m.order, m.err
}
func (m *mockOrderSvc) ListOrders(_ context.Context, f models.OrderFilter) ([]models.OrderResponse, *services.ServiceError) {
	m.filter = f
	return m.orders, m.err
}
func (m *mockOrderSvc) GetOrder(_ context.Context, id uint) (*models.OrderResponse, *services.ServiceError) {
	m.gotOrder = id
	return m.order, m.err
}
func (m *mockOrderSvc) UpdateStatus(_ context.Context, _ uint, st models.OrderStatus) (*models.OrderResponse, *services.ServiceError) {
	m.status = st
	return m.order, m.err
}
func (m *mockOrderSvc) ConfirmOrder(_ context.Context, _ uint, pm models.PaymentMethod) (*models.OrderResponse, *services.ServiceError) {
	m.payment = pm
	return m.order, m.err
}
func (m *mockOrderSvc) Cleanup(context.Context) (*models.CleanupResult, *services.ServiceError) {
	return m.cleanup, m.err
}

// ---- device and report mocks ----

type mockDeviceSvc struct {
	devices []models.Device
	err     *services.ServiceError
}

func (m *mockDeviceSvc) Heartbeat(context.Context, string, models.DeviceType) error { return nil }
func (m *mockDeviceSvc) Disconnect(context.Context, string) error                  { return nil }
func (m *mockDeviceSvc) Sweep(context.Context) (int64, error)                      { return 0, nil }
func (m *mockDeviceSvc) ListDevices(context.Context) ([]models.Device, *services.ServiceError) {
	return m.devices, m.err
}

type mockReportSvc struct {
	report  *models.SalesReport
	err     *services.ServiceError
	health  *models.Health
	healthy bool
}

func (m *mockReportSvc) Sales(context.Context) (*models.SalesReport, *services.ServiceError) {
	return m.report, m.err
}
func (m *mockReportSvc) Health(context.Context) (*models.Health, bool) { return m.health, m.healthy }

// ---- printer mock ----

type mockPrinter struct {
	result     printer.Result
	status     printer.Status
	statusOK   bool
	printers   []string
	printed    *models.OrderResponse
	testDevice string
}

func (m *mockPrinter) PrintReceipt(_ context.Context, deviceID string, order models.OrderResponse) printer.Result {
	m.printed = &order
	r := m.result
	r.DeviceID = deviceID
	return r
}
func (m *mockPrinter) PrintTest(_ context.Context, deviceID string) printer.Result {
	m.testDevice = deviceID
	return m.result
}
func (m *mockPrinter) Status(context.Context, string) (printer.Status, bool) {
	return m.status, m.statusOK
}
func (m *mockPrinter) List(context.Context) []string { return m.printers }
func (m *mockPrinter) Devices() []map[string]string {
	return []map[string]string{{"device_id": "kiosk-1", "printer": "p1"}}
}
