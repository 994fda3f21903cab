package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Skotchmaster/stores_api/internal/metrics"
	authmw "github.com/Skotchmaster/stores_api/internal/middleware/auth"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	CatalogHandler *CatalogHTTP
	Tokens         *authmw.TokenMiddleware
	// Ready reports whether backing services answer; nil means always ready.
	Ready    func(ctx context.Context) error
	Gatherer prometheus.Gatherer
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable", "error": err.Error()})
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	if d.Gatherer != nil {
		e.GET("/metrics", metrics.Handler(d.Gatherer))
	}

	e.POST("/register", d.AuthHandler.Register)
	e.POST("/login", d.AuthHandler.Login)
	e.POST("/logout", d.AuthHandler.Logout, d.Tokens.RequireAccess())
	e.POST("/refresh", d.AuthHandler.Refresh, d.Tokens.RequireRefresh())
	e.GET("/user/:id", d.AuthHandler.GetUser)
	e.DELETE("/user/:id", d.AuthHandler.DeleteUser)

	e.GET("/items", d.CatalogHandler.ListItems)
	e.GET("/items/search", d.CatalogHandler.SearchItems)
	e.GET("/item/:name", d.CatalogHandler.GetItem)
	e.POST("/item/:name", d.CatalogHandler.CreateItem, d.Tokens.RequireFresh())
	e.PUT("/item/:name", d.CatalogHandler.PutItem)
	e.DELETE("/item/:name", d.CatalogHandler.DeleteItem, d.Tokens.RequireAccess())

	e.GET("/stores", d.CatalogHandler.ListStores)
	e.GET("/store/:name", d.CatalogHandler.GetStore)
	e.POST("/store/:name", d.CatalogHandler.CreateStore)
	e.DELETE("/store/:name", d.CatalogHandler.DeleteStore)
}
