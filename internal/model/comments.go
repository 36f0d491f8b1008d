package model

import "time"

type Comment struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Author     string    `json:"author"`
	AuthorName string    `json:"authorName,omitempty"`
	PostID     string    `json:"postId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// CommentRequest is the body accepted by POST /comments.
type CommentRequest struct {
	Text   string `json:"text" validate:"required,notblank,max=2000"`
	Author string `json:"author" validate:"required,notblank,max=100"`
	PostID string `json:"postId" validate:"max=64"`
}

// CommentUpdateRequest is the body accepted by PUT /comments/{id}. Only text
// and author are mutable; postId in the body is ignored.
type CommentUpdateRequest struct {
	Text   string `json:"text" validate:"required,notblank,max=2000"`
	Author string `json:"author" validate:"required,notblank,max=100"`
}

// Public field names used by store filters and updates.
const (
	FieldID     = "id"
	FieldText   = "text"
	FieldAuthor = "author"
	FieldPostID = "postId"
)
