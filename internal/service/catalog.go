package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/stores_api/internal/events"
	"github.com/Skotchmaster/stores_api/internal/logging"
	"github.com/Skotchmaster/stores_api/internal/models"
	"github.com/Skotchmaster/stores_api/internal/repo"
	"github.com/Skotchmaster/stores_api/internal/search"
	"github.com/Skotchmaster/stores_api/internal/transport"
	"github.com/Skotchmaster/stores_api/internal/util"
)

type CatalogRepo interface {
	FindItemByName(ctx context.Context, name string) (*models.Item, error)
	ListItems(ctx context.Context) ([]models.Item, error)
	ListItemsForStore(ctx context.Context, storeID uint) ([]models.Item, error)
	FindItemsByIDs(ctx context.Context, ids []uint) ([]models.Item, error)
	CreateItem(ctx context.Context, item *models.Item, requestID func(id uint) string) error
	SaveItem(ctx context.Context, item *models.Item) error
	DeleteItem(ctx context.Context, name string) (*models.Item, error)

	FindStoreByName(ctx context.Context, name string) (*models.Store, error)
	StoreExists(ctx context.Context, id uint) (bool, error)
	ListStores(ctx context.Context) ([]models.Store, error)
	CreateStore(ctx context.Context, s *models.Store) error
	DeleteStore(ctx context.Context, name string) ([]models.Item, error)
}

type CatalogService struct {
	Repo   CatalogRepo
	Search search.Index
	Events events.Publisher
	Now    func() time.Time
}

// RequestID formats the item reference as upper-cased "MonYYDD-<id>",
// e.g. OCT2616-1.
func RequestID(t time.Time, id uint) string {
	return strings.ToUpper(t.Format("Jan0602")) + "-" + strconv.FormatUint(uint64(id), 10)
}

// MaxPrice is the first value the decimal(12,2) price column cannot hold.
const MaxPrice = 1e10

func roundCents(p float64) float64 {
	return math.Round(p*100) / 100
}

func (s *CatalogService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *CatalogService) GetItem(ctx context.Context, name string) (*models.Item, error) {
	item, err := s.Repo.FindItemByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(MsgItemNotFound, err)
		}
		logging.FromContext(ctx).Error("get_item_error", "status", 500, "error", err)
		return nil, internal(MsgInternal, err)
	}
	return item, nil
}

func (s *CatalogService) ListItems(ctx context.Context) ([]models.Item, error) {
	items, err := s.Repo.ListItems(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("list_items_error", "status", 500, "error", err)
		return nil, internal(MsgInternal, err)
	}
	return items, nil
}

// validateItem checks the body fields and that the referenced store exists.
func (s *CatalogService) validateItem(ctx context.Context, req transport.ItemRequest) error {
	if req.Price == nil {
		return blank("price")
	}
	if req.StoreID == nil {
		return blank("store_id")
	}
	p := *req.Price
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return &Error{Kind: ErrValidation, Message: "'price' must be a finite number."}
	}
	if p < 0 {
		return &Error{Kind: ErrValidation, Message: "'price' cannot be negative."}
	}
	if roundCents(p) >= MaxPrice {
		return &Error{Kind: ErrValidation, Message: "'price' must be less than 10000000000."}
	}
	ok, err := s.Repo.StoreExists(ctx, *req.StoreID)
	if err != nil {
		return internal(MsgInternal, err)
	}
	if !ok {
		return unknownStore(*req.StoreID, nil)
	}
	return nil
}

func (s *CatalogService) CreateItem(ctx context.Context, name string, req transport.ItemRequest) (*models.Item, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_item", "item", name)

	if strings.TrimSpace(name) == "" {
		return nil, blank("name")
	}

	exists := conflict(fmt.Sprintf("An item with name '%s' already exists.", name), nil)
	if _, err := s.Repo.FindItemByName(ctx, name); err == nil {
		return nil, exists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		l.Error("create_item_error", "status", 500, "reason", "item lookup failed", "error", err)
		return nil, internal(MsgItemInsertError, err)
	}

	if err := s.validateItem(ctx, req); err != nil {
		return nil, err
	}

	item := &models.Item{Name: name, Price: roundCents(*req.Price), StoreID: *req.StoreID}
	now := s.now()
	if err := s.Repo.CreateItem(ctx, item, func(id uint) string { return RequestID(now, id) }); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, exists
		}
		if errors.Is(err, repo.ErrMissingReference) {
			return nil, unknownStore(item.StoreID, err)
		}
		l.Error("create_item_error", "status", 500, "reason", "insert failed", "error", err)
		return nil, internal(MsgItemInsertError, err)
	}

	s.index(ctx, *item)
	s.publish(ctx, events.New(events.ItemCreated, item.Name, item))
	return item, nil
}

// UpsertItem updates price and store of an existing item, or creates it.
// created reports which of the two happened.
func (s *CatalogService) UpsertItem(ctx context.Context, name string, req transport.ItemRequest) (item *models.Item, created bool, err error) {
	l := logging.FromContext(ctx).With("svc", "catalog.upsert_item", "item", name)

	existing, err := s.Repo.FindItemByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			item, err := s.CreateItem(ctx, name, req)
			return item, err == nil, err
		}
		l.Error("upsert_item_error", "status", 500, "reason", "item lookup failed", "error", err)
		return nil, false, internal(MsgInternal, err)
	}

	if err := s.validateItem(ctx, req); err != nil {
		return nil, false, err
	}

	existing.Price = roundCents(*req.Price)
	existing.StoreID = *req.StoreID
	if err := s.Repo.SaveItem(ctx, existing); err != nil {
		if errors.Is(err, repo.ErrMissingReference) {
			return nil, false, unknownStore(existing.StoreID, err)
		}
		l.Error("upsert_item_error", "status", 500, "reason", "update failed", "error", err)
		return nil, false, internal(MsgInternal, err)
	}

	s.index(ctx, *existing)
	s.publish(ctx, events.New(events.ItemUpdated, existing.Name, existing))
	return existing, false, nil
}

func (s *CatalogService) DeleteItem(ctx context.Context, name string) error {
	item, err := s.Repo.DeleteItem(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(MsgItemNotFound, err)
		}
		logging.FromContext(ctx).Error("delete_item_error", "status", 500, "error", err)
		return internal(MsgInternal, err)
	}

	s.unindex(ctx, item.ID)
	s.publish(ctx, events.New(events.ItemDeleted, item.Name, item))
	return nil
}

// SearchItems runs a name search against the index and loads the matching
// rows from the database, so results always reflect stored values.
func (s *CatalogService) SearchItems(ctx context.Context, query string, page, size int) (int64, []models.Item, error) {
	if strings.TrimSpace(query) == "" {
		return 0, nil, blank("q")
	}
	if s.Search == nil {
		return 0, nil, &Error{Kind: ErrUnavailable, Message: MsgSearchDisabled, Err: search.ErrDisabled}
	}

	from, limit := util.Offset(page, size)
	total, ids, err := s.Search.SearchItems(ctx, query, from, limit)
	if err != nil {
		if !errors.Is(err, search.ErrDisabled) {
			logging.FromContext(ctx).Error("search_error", "status", 503, "error", err)
		}
		return 0, nil, &Error{Kind: ErrUnavailable, Message: MsgSearchDisabled, Err: err}
	}

	items, err := s.Repo.FindItemsByIDs(ctx, ids)
	if err != nil {
		logging.FromContext(ctx).Error("search_error", "status", 500, "reason", "cannot load hits", "error", err)
		return 0, nil, internal(MsgInternal, err)
	}
	return total, items, nil
}

func (s *CatalogService) storeView(ctx context.Context, store models.Store) (models.StoreWithItems, error) {
	items, err := s.Repo.ListItemsForStore(ctx, store.ID)
	if err != nil {
		return models.StoreWithItems{}, err
	}
	return store.WithItems(items), nil
}

func (s *CatalogService) GetStore(ctx context.Context, name string) (*models.StoreWithItems, error) {
	store, err := s.Repo.FindStoreByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(MsgStoreNotFound, err)
		}
		logging.FromContext(ctx).Error("get_store_error", "status", 500, "error", err)
		return nil, internal(MsgInternal, err)
	}
	view, err := s.storeView(ctx, *store)
	if err != nil {
		logging.FromContext(ctx).Error("get_store_error", "status", 500, "reason", "cannot load items", "error", err)
		return nil, internal(MsgInternal, err)
	}
	return &view, nil
}

func (s *CatalogService) CreateStore(ctx context.Context, name string) (*models.StoreWithItems, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.create_store", "store", name)

	if strings.TrimSpace(name) == "" {
		return nil, blank("name")
	}

	exists := conflict(fmt.Sprintf("A store with name '%s' already exists.", name), nil)
	if _, err := s.Repo.FindStoreByName(ctx, name); err == nil {
		return nil, exists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		l.Error("create_store_error", "status", 500, "reason", "store lookup failed", "error", err)
		return nil, internal(MsgStoreInsertErr, err)
	}

	store := &models.Store{Name: name}
	if err := s.Repo.CreateStore(ctx, store); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, exists
		}
		l.Error("create_store_error", "status", 500, "reason", "insert failed", "error", err)
		return nil, internal(MsgStoreInsertErr, err)
	}

	s.publish(ctx, events.New(events.StoreCreated, store.Name, store))
	view := store.WithItems(nil)
	return &view, nil
}

func (s *CatalogService) DeleteStore(ctx context.Context, name string) error {
	removed, err := s.Repo.DeleteStore(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound(MsgStoreNotFound, err)
		}
		logging.FromContext(ctx).Error("delete_store_error", "status", 500, "error", err)
		return internal(MsgInternal, err)
	}

	for _, it := range removed {
		s.unindex(ctx, it.ID)
	}
	s.publish(ctx, events.New(events.StoreDeleted, name, map[string]any{"items_removed": len(removed)}))
	return nil
}

func (s *CatalogService) ListStores(ctx context.Context) ([]models.StoreWithItems, error) {
	stores, err := s.Repo.ListStores(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("list_stores_error", "status", 500, "error", err)
		return nil, internal(MsgInternal, err)
	}

	views := make([]models.StoreWithItems, 0, len(stores))
	for _, st := range stores {
		view, err := s.storeView(ctx, st)
		if err != nil {
			logging.FromContext(ctx).Error("list_stores_error", "status", 500, "reason", "cannot load items", "error", err)
			return nil, internal(MsgInternal, err)
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *CatalogService) index(ctx context.Context, item models.Item) {
	if s.Search == nil {
		return
	}
	if err := s.Search.IndexItem(ctx, item); err != nil {
		logging.FromContext(ctx).Warn("search index update failed", "item_id", item.ID, "error", err)
	}
}

func (s *CatalogService) unindex(ctx context.Context, id uint) {
	if s.Search == nil {
		return
	}
	if err := s.Search.DeleteItem(ctx, id); err != nil {
		logging.FromContext(ctx).Warn("search index delete failed", "item_id", id, "error", err)
	}
}

func (s *CatalogService) publish(ctx context.Context, ev events.Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, events.TopicCatalog, ev); err != nil {
		logging.FromContext(ctx).Warn("publish failed", "event", ev.Type, "error", err)
	}
}
