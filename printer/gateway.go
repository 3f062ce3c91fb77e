package printer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"kiosk-service/models"

	"go.uber.org/zap"
)

// Result is the outcome of a print request.
type Result struct {
	Success     bool   `json:"success"`
	DeviceID    string `json:"device_id"`
	Printer     string `json:"printer,omitempty"`
	OrderNumber string `json:"order_number,omitempty"`
	Message     string `json:"message,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Gateway resolves device printers and sends receipts to them.
type Gateway struct {
	cfg    *Config
	driver Driver
	now    func() time.Time
	logger *zap.Logger
}

// NewGateway creates a Gateway.
func NewGateway(cfg *Config, driver Driver, logger *zap.Logger) *Gateway {
	return &Gateway{cfg: cfg, driver: driver, now: time.Now, logger: logger}
}

// Print sends payload to the printer configured for deviceID.
func (g *Gateway) Print(ctx context.Context, deviceID string, payload []byte) Result {
	name, ok := g.cfg.PrinterFor(deviceID)
	if !ok {
		return Result{DeviceID: deviceID, Error: fmt.Sprintf("No printer configured for device: %s", deviceID)}
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()
	if err := g.driver.Print(ctx, name, payload); err != nil {
		g.logger.Error("Print failed", zap.String("device_id", deviceID), zap.String("printer", name), zap.Error(err))
		return Result{DeviceID: deviceID, Printer: name, Error: err.Error()}
	}
	return Result{Success: true, DeviceID: deviceID, Printer: name}
}

// PrintReceipt formats order and prints it on the device's printer.
func (g *Gateway) PrintReceipt(ctx context.Context, deviceID string, order models.OrderResponse) Result {
	doc := receiptDocument(NewReceipt(order, deviceID), g.cfg.Width, g.cfg.Location())
	res := g.Print(ctx, deviceID, doc.ESCPOS())
	res.OrderNumber = order.OrderNumber
	if res.Success {
		res.Message = "Receipt printed"
		g.logger.Info("Receipt printed", zap.String("order_number", order.OrderNumber), zap.String("device_id", deviceID))
	}
	return res
}

// PrintTest prints a test page.
func (g *Gateway) PrintTest(ctx context.Context, deviceID string) Result {
	doc := testDocument(deviceID, g.now(), g.cfg.Location())
	res := g.Print(ctx, deviceID, doc.ESCPOS())
	if res.Success {
		res.Message = "Test page printed"
	}
	return res
}

// Status queries the printer configured for deviceID.
func (g *Gateway) Status(ctx context.Context, deviceID string) (Status, bool) {
	name, ok := g.cfg.PrinterFor(deviceID)
	if !ok {
		return Status{Status: "error", Error: fmt.Sprintf("No printer configured for device: %s", deviceID)}, false
	}
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()
	raw, err := g.driver.Status(ctx, name)
	if err != nil {
		return Status{Printer: name, Status: "error", Error: err.Error()}, true
	}
	return ParseStatus(name, raw), true
}

// List returns the printers CUPS knows about. Failures yield an empty list.
func (g *Gateway) List(ctx context.Context) []string {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()
	raw, err := g.driver.List(ctx)
	if err != nil {
		g.logger.Error("Failed to list printers", zap.Error(err))
		return []string{}
	}
	return ParsePrinterList(raw)
}

// Devices returns the configured device->printer pairs sorted by device.
func (g *Gateway) Devices() []map[string]string {
	ids := make([]string, 0, len(g.cfg.Printers))
	for id := range g.cfg.Printers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, map[string]string{"device_id": id, "printer": g.cfg.Printers[id]})
	}
	return out
}
