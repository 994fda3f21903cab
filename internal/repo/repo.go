package repo

import (
	"errors"

	"github.com/Skotchmaster/stores_api/internal/db"
	"gorm.io/gorm"
)

var (
	ErrDuplicate = errors.New("duplicate key")
	// ErrMissingReference means a foreign key points at a row that is gone.
	ErrMissingReference = errors.New("missing referenced row")
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// translate folds driver-specific unique and foreign key violations into
// ErrDuplicate and ErrMissingReference and passes everything else,
// gorm.ErrRecordNotFound included, through.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if db.IsUniqueViolation(err) {
		return errors.Join(ErrDuplicate, err)
	}
	if db.IsForeignKeyViolation(err) {
		return errors.Join(ErrMissingReference, err)
	}
	return err
}
