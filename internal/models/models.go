package models

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"     json:"id"`
	Username     string `gorm:"size:80;uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"not null"                     json:"-"`
}

// Store has no association field: its items are loaded on demand through
// the repository so listing stores never touches the items table. The
// foreign key lives on Item.
type Store struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"     json:"id"`
	Name string `gorm:"size:80;uniqueIndex;not null" json:"name"`
}

type Item struct {
	ID        uint    `gorm:"primaryKey;autoIncrement"     json:"id"`
	Name      string  `gorm:"size:80;uniqueIndex;not null" json:"name"`
	Price     float64 `gorm:"type:decimal(12,2);not null"  json:"price"`
	StoreID   uint    `gorm:"index;not null"               json:"store_id"`
	RequestID string  `gorm:"size:32"                      json:"request_id"`

	Store *Store `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

type StoreWithItems struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

func (s Store) WithItems(items []Item) StoreWithItems {
	if items == nil {
		items = []Item{}
	}
	return StoreWithItems{ID: s.ID, Name: s.Name, Items: items}
}

func All() []any {
	return []any{&User{}, &Store{}, &Item{}}
}
