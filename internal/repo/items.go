package repo

import (
	"context"

	"github.com/Skotchmaster/stores_api/internal/models"
	"gorm.io/gorm"
)

func (r *GormRepo) FindItemByName(ctx context.Context, name string) (*models.Item, error) {
	var item models.Item
	if err := r.DB.WithContext(ctx).Where("name = ?", name).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) ListItems(ctx context.Context) ([]models.Item, error) {
	items := []models.Item{}
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) ListItemsForStore(ctx context.Context, storeID uint) ([]models.Item, error) {
	items := []models.Item{}
	if err := r.DB.WithContext(ctx).Where("store_id = ?", storeID).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindItemsByIDs keeps the order of ids and skips ids that no longer exist.
func (r *GormRepo) FindItemsByIDs(ctx context.Context, ids []uint) ([]models.Item, error) {
	if len(ids) == 0 {
		return []models.Item{}, nil
	}
	var found []models.Item
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Item, len(found))
	for _, it := range found {
		byID[it.ID] = it
	}
	items := make([]models.Item, 0, len(found))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			items = append(items, it)
		}
	}
	return items, nil
}

// CreateItem inserts the item and stamps its request id, derived from the
// generated primary key, inside the same transaction.
func (r *GormRepo) CreateItem(ctx context.Context, item *models.Item, requestID func(id uint) string) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		item.RequestID = requestID(item.ID)
		return tx.Model(item).Update("request_id", item.RequestID).Error
	})
	if err != nil {
		item.RequestID = ""
	}
	return translate(err)
}

func (r *GormRepo) SaveItem(ctx context.Context, item *models.Item) error {
	return translate(r.DB.WithContext(ctx).Save(item).Error)
}

func (r *GormRepo) DeleteItem(ctx context.Context, name string) (*models.Item, error) {
	var item models.Item
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("name = ?", name).First(&item).Error; err != nil {
			return err
		}
		return tx.Delete(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}
