package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/stores_api/internal/logging"
	"github.com/Skotchmaster/stores_api/internal/service"
	"github.com/Skotchmaster/stores_api/internal/transport"
	"github.com/Skotchmaster/stores_api/internal/util"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) GetItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "item.get")

	item, err := h.Svc.GetItem(ctx, c.Param("name"))
	if err != nil {
		he := httpError(err)
		l.Warn("get_item_failed", "status", he.Code, "error", err)
		return he
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CatalogHTTP) CreateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "item.create")

	var req transport.ItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_item_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}

	item, err := h.Svc.CreateItem(ctx, c.Param("name"), req)
	if err != nil {
		he := httpError(err)
		l.Warn("create_item_failed", "status", he.Code, "error", err)
		return he
	}

	l.Info("item_created", "id", item.ID, "request_id", item.RequestID)
	return c.JSON(http.StatusCreated, item)
}

func (h *CatalogHTTP) PutItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "item.put")

	var req transport.ItemRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("put_item_failed", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body.")
	}

	item, created, err := h.Svc.UpsertItem(ctx, c.Param("name"), req)
	if err != nil {
		he := httpError(err)
		l.Warn("put_item_failed", "status", he.Code, "error", err)
		return he
	}

	l.Info("item_saved", "id", item.ID, "created", created)
	return c.JSON(http.StatusOK, item)
}

func (h *CatalogHTTP) DeleteItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "item.delete")

	if err := h.Svc.DeleteItem(ctx, c.Param("name")); err != nil {
		he := httpError(err)
		l.Warn("delete_item_failed", "status", he.Code, "error", err)
		return he
	}

	return c.JSON(http.StatusOK, transport.MessageResponse{Message: service.MsgItemDeleted})
}

func (h *CatalogHTTP) ListItems(c echo.Context) error {
	ctx := c.Request().Context()

	items, err := h.Svc.ListItems(ctx)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *CatalogHTTP) SearchItems(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "item.search")

	page, err := util.ParseInt(c.QueryParam("page"), 1)
	if err != nil {
		l.Warn("search_failed", "status", 400, "reason", "page is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "'page' must be an integer.")
	}
	size, err := util.ParseInt(c.QueryParam("size"), util.DefaultPageSize)
	if err != nil {
		l.Warn("search_failed", "status", 400, "reason", "size is not an integer", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "'size' must be an integer.")
	}

	total, items, err := h.Svc.SearchItems(ctx, c.QueryParam("q"), page, size)
	if err != nil {
		he := httpError(err)
		l.Warn("search_failed", "status", he.Code, "error", err)
		return he
	}

	return c.JSON(http.StatusOK, transport.SearchResponse{Total: total, Items: items})
}

func (h *CatalogHTTP) GetStore(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.get")

	store, err := h.Svc.GetStore(ctx, c.Param("name"))
	if err != nil {
		he := httpError(err)
		l.Warn("get_store_failed", "status", he.Code, "error", err)
		return he
	}
	return c.JSON(http.StatusOK, store)
}

func (h *CatalogHTTP) CreateStore(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.create")

	store, err := h.Svc.CreateStore(ctx, c.Param("name"))
	if err != nil {
		he := httpError(err)
		l.Warn("create_store_failed", "status", he.Code, "error", err)
		return he
	}

	l.Info("store_created", "id", store.ID)
	return c.JSON(http.StatusCreated, store)
}

func (h *CatalogHTTP) DeleteStore(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "store.delete")

	if err := h.Svc.DeleteStore(ctx, c.Param("name")); err != nil {
		he := httpError(err)
		l.Warn("delete_store_failed", "status", he.Code, "error", err)
		return he
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: service.MsgStoreDeleted})
}

func (h *CatalogHTTP) ListStores(c echo.Context) error {
	ctx := c.Request().Context()

	stores, err := h.Svc.ListStores(ctx)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"stores": stores})
}
