package models

// Site is a tenant blog owned by a user and addressed by its subdirectory
type Site struct {
	Base
	Name         string `json:"name" gorm:"not null"`
	Description  string `json:"description" gorm:"type:text"`
	Subdirectory string `json:"subdirectory" gorm:"uniqueIndex;not null"`
	ImageURL     string `json:"imageUrl"`
	UserID       string `json:"userId" gorm:"index;size:64;not null"`
	Posts        []Post `json:"posts,omitempty" gorm:"foreignKey:SiteID"`
}
