package routes

import (
	"kiosk-service/controllers"

	"github.com/gin-gonic/gin"
)

// Controllers groups every handler the router mounts.
type Controllers struct {
	Categories *controllers.CategoryController
	Menu       *controllers.MenuController
	Orders     *controllers.OrderController
	Devices    *controllers.DeviceController
	Reports    *controllers.ReportController
	Printer    *controllers.PrinterController
	Images     *controllers.ImageController
	Socket     gin.HandlerFunc
}

// RegisterRoutes mounts the websocket endpoint, the image files and the
// JSON API. api middleware applies to /api routes only.
func RegisterRoutes(r *gin.Engine, c Controllers, api ...gin.HandlerFunc) {
	if c.Socket != nil {
		r.GET("/ws", c.Socket)
	}
	r.GET("/api/images/*filepath", c.Images.Serve)

	g := r.Group("/api", api...)
	g.GET("/health", c.Reports.Health)

	categories := g.Group("/categories")
	{
		categories.GET("", c.Categories.ListCategories)
		categories.GET("/:id", c.Categories.GetCategory)
		categories.POST("", c.Categories.CreateCategory)
		categories.PUT("/:id", c.Categories.UpdateCategory)
		categories.DELETE("/:id", c.Categories.DeleteCategory)

		categories.POST("/:id/sizes", c.Categories.CreateSize)
		categories.PUT("/:id/sizes/:sizeId", c.Categories.UpdateSize)
		categories.DELETE("/:id/sizes/:sizeId", c.Categories.DeleteSize)

		categories.POST("/:id/ingredients", c.Categories.CreateIngredient)
		categories.PUT("/:id/ingredients/:ingredientId", c.Categories.UpdateIngredient)
		categories.DELETE("/:id/ingredients/:ingredientId", c.Categories.DeleteIngredient)
	}

	menu := g.Group("/menu")
	{
		menu.GET("", c.Menu.ListMenu)
		menu.GET("/:id", c.Menu.GetMenuItem)
		menu.POST("", c.Menu.CreateMenuItem)
		menu.PUT("/:id", c.Menu.UpdateMenuItem)
		menu.DELETE("/:id", c.Menu.DeleteMenuItem)
		menu.PATCH("/:id/availability", c.Menu.SetAvailability)
	}

	orders := g.Group("/orders")
	{
		orders.POST("", c.Orders.CreateOrder)
		orders.GET("", c.Orders.ListOrders)
		orders.DELETE("/cleanup", c.Orders.Cleanup)
		orders.GET("/:id", c.Orders.GetOrder)
		orders.PATCH("/:id/status", c.Orders.UpdateStatus)
		orders.PATCH("/:id/confirm", c.Orders.ConfirmOrder)
	}

	g.GET("/devices", c.Devices.ListDevices)
	g.GET("/reports/sales", c.Reports.Sales)

	printer := g.Group("/printer")
	{
		printer.POST("/test", c.Printer.PrintTest)
		printer.POST("/receipt", c.Printer.PrintReceipt)
		printer.GET("/list", c.Printer.ListPrinters)
		printer.GET("/status/:deviceId", c.Printer.Status)
	}
}
