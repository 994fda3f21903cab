package repo

import (
	"context"

	"github.com/Skotchmaster/stores_api/internal/models"
	"gorm.io/gorm"
)

func (r *GormRepo) FindStoreByName(ctx context.Context, name string) (*models.Store, error) {
	var store models.Store
	if err := r.DB.WithContext(ctx).Where("name = ?", name).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *GormRepo) StoreExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.Store{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) ListStores(ctx context.Context) ([]models.Store, error) {
	stores := []models.Store{}
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&stores).Error; err != nil {
		return nil, err
	}
	return stores, nil
}

func (r *GormRepo) CreateStore(ctx context.Context, s *models.Store) error {
	return translate(r.DB.WithContext(ctx).Create(s).Error)
}

// DeleteStore removes the store and every item it owns in one transaction.
// The deleted items are returned so callers can drop them from secondary
// indexes.
func (r *GormRepo) DeleteStore(ctx context.Context, name string) ([]models.Item, error) {
	var removed []models.Item
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var store models.Store
		if err := tx.Where("name = ?", name).First(&store).Error; err != nil {
			return err
		}
		if err := tx.Where("store_id = ?", store.ID).Find(&removed).Error; err != nil {
			return err
		}
		if err := tx.Where("store_id = ?", store.ID).Delete(&models.Item{}).Error; err != nil {
			return err
		}
		return tx.Delete(&store).Error
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}
