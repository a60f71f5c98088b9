package model

import (
	"time"
)

type Store struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	Name        string    `gorm:"not null;index" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Address     string    `gorm:"not null" json:"address,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	OwnerID     uint      `gorm:"not null;index" json:"ownerId,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`

	// Owners cannot be deleted while they still own stores.
	Owner   *User    `gorm:"foreignKey:OwnerID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"owner,omitempty"`
	Ratings []Rating `gorm:"foreignKey:StoreID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"ratings,omitempty"`
}

func (Store) TableName() string {
	return "stores"
}

// StoreView is a store plus its derived rating aggregates.
type StoreView struct {
	Store
	AverageRating float64 `json:"averageRating"`
	RatingCount   int64   `json:"ratingCount"`
}

// RatingAggregate holds the derived rating figures of one store.
type RatingAggregate struct {
	StoreID       uint    `json:"storeId"`
	AverageRating float64 `json:"averageRating"`
	RatingCount   int64   `json:"ratingCount"`
}
