package rest

import (
	"github.com/bwise1/comment_service/internal/model"
	"github.com/bwise1/comment_service/internal/store"
	"github.com/go-chi/chi/v5"
)

type commentResource = Resource[model.Comment, model.CommentRequest, model.CommentUpdateRequest]

func (api *API) CommentRoutes() chi.Router {
	return api.commentResource().Routes()
}

func (api *API) commentResource() *commentResource {
	return &commentResource{
		Name:        "Comment",
		Store:       api.Deps.Comments,
		Logger:      api.Deps.Logger,
		Build:       newComment,
		Changes:     commentChanges,
		ScopeField:  model.FieldPostID,
		ScopePrefix: "post",
		Expandable:  []string{store.RefAuthor},
	}
}

func newComment(req model.CommentRequest) model.Comment {
	return model.Comment{
		Text:   req.Text,
		Author: req.Author,
		PostID: req.PostID,
	}
}

func commentChanges(req model.CommentUpdateRequest) store.Fields {
	return store.Fields{
		model.FieldText:   req.Text,
		model.FieldAuthor: req.Author,
	}
}
