package models

import "time"

// ReactionType is an emoji style reaction on a post
type ReactionType string

const (
	ReactionLike   ReactionType = "like"
	ReactionLove   ReactionType = "love"
	ReactionClap   ReactionType = "clap"
	ReactionFire   ReactionType = "fire"
	ReactionRocket ReactionType = "rocket"
)

// ReactionTypes lists every supported reaction in display order
var ReactionTypes = []ReactionType{ReactionLike, ReactionLove, ReactionClap, ReactionFire, ReactionRocket}

// Valid reports whether t is a supported reaction
func (t ReactionType) Valid() bool {
	for _, rt := range ReactionTypes {
		if rt == t {
			return true
		}
	}
	return false
}

// Reaction is a user's single reaction to a post
type Reaction struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	UserID    string       `json:"userId" gorm:"uniqueIndex:idx_reaction_user_post;size:64;not null"`
	PostID    string       `json:"postId" gorm:"uniqueIndex:idx_reaction_user_post;index;size:36;not null"`
	Type      ReactionType `json:"type" gorm:"not null"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}
