package repository

import "gorm.io/gorm"

// userSummary limits a preloaded user to public columns.
func userSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name")
}

// userContact also exposes the email, for admin listings.
func userContact(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "email")
}

func storeSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "address")
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}
