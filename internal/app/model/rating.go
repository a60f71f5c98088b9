package model

import (
	"time"
)

const (
	MinScore = 1
	MaxScore = 5
)

// Rating is one user's score for one store. The composite unique index
// allows at most one rating per (user, store).
type Rating struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Score     int       `gorm:"not null;check:chk_ratings_score,score >= 1 AND score <= 5" json:"score"`
	Comment   string    `gorm:"type:text" json:"comment,omitempty"`
	UserID    uint      `gorm:"not null;index:idx_rating_user_store,unique" json:"userId"`
	StoreID   uint      `gorm:"not null;index:idx_rating_user_store,unique;index" json:"storeId"`
	CreatedAt time.Time `gorm:"index" json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`

	User  *User  `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user,omitempty"`
	Store *Store `gorm:"foreignKey:StoreID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"store,omitempty"`
}

func (Rating) TableName() string {
	return "ratings"
}

// ValidScore reports whether s is within the allowed score range.
func ValidScore(s int) bool {
	return s >= MinScore && s <= MaxScore
}

// ScoreBucket is one row of a score distribution.
type ScoreBucket struct {
	Score int   `json:"score"`
	Count int64 `json:"count"`
}
