package models

import "time"

// DeletedCommentContent replaces the body of a deleted comment that still has replies
const DeletedCommentContent = "[deleted]"

// Comment is a threaded comment on a post. Top level comments have no ParentID.
type Comment struct {
	Base
	Content   string    `json:"content" gorm:"type:text;not null"`
	PostID    string    `json:"postId" gorm:"index;size:36;not null"`
	UserID    string    `json:"userId" gorm:"index;size:64;not null"`
	ParentID  *string   `json:"parentId" gorm:"index;size:36"`
	User      *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Replies   []Comment `json:"replies,omitempty" gorm:"foreignKey:ParentID"`
	LikeCount int64     `json:"likeCount" gorm:"-"`
}

// CommentLike records one user's like of a comment
type CommentLike struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"userId" gorm:"uniqueIndex:idx_comment_like_user;size:64;not null"`
	CommentID string    `json:"commentId" gorm:"uniqueIndex:idx_comment_like_user;index;size:36;not null"`
	CreatedAt time.Time `json:"createdAt"`
}
