package models

import (
	"database/sql/driver"
	"encoding/json"
)

// PostStatus is the publication state of a post
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// DefaultPostImage is the cover image given to generated posts
const DefaultPostImage = "default-image-url.jpg"

// ArticleContent is the stored editor document for a post body
type ArticleContent struct {
	Content string `json:"content"`
}

// Value implements driver.Valuer interface for ArticleContent
func (a ArticleContent) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface for ArticleContent
func (a *ArticleContent) Scan(value any) error {
	*a = ArticleContent{}
	return scanJSON(value, a)
}

// Post is a blog article
type Post struct {
	Base
	Title            string         `json:"title" gorm:"not null"`
	Slug             string         `json:"slug" gorm:"index;not null"`
	SmallDescription string         `json:"smallDescription"`
	MetaDescription  string         `json:"metaDescription"`
	ArticleContent   ArticleContent `json:"articleContent" gorm:"type:json"`
	Image            string         `json:"image"`
	FeaturedImage    *string        `json:"featuredImage"`
	Tags             StringList     `json:"tags" gorm:"type:json"`
	Likes            int            `json:"likes" gorm:"default:0"`
	Views            int            `json:"views" gorm:"default:0"`
	Status           PostStatus     `json:"status" gorm:"default:'draft';index"`
	UserID           string         `json:"userId" gorm:"index;size:64;not null"`
	SiteID           *string        `json:"siteId,omitempty" gorm:"index;size:36"`
}

// IsOwnedBy reports whether userID authored the post
func (p *Post) IsOwnedBy(userID string) bool {
	return p != nil && userID != "" && p.UserID == userID
}
