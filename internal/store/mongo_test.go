package store

import (
	"context"
	"testing"
	"time"

	"github.com/bwise1/comment_service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoFilter(t *testing.T) {
	objID := primitive.NewObjectID()

	query, err := mongoFilter(Filter{model.FieldPostID: "p1", model.FieldID: objID.Hex()})
	require.NoError(t, err)
	assert.Equal(t, bson.D{{Key: "_id", Value: objID}, {Key: "post_id", Value: "p1"}}, query)

	query, err = mongoFilter(nil)
	require.NoError(t, err)
	assert.Empty(t, query)
}

func TestMongoFilter_Errors(t *testing.T) {
	_, err := mongoFilter(Filter{model.FieldID: "not-an-object-id"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = mongoFilter(Filter{"likes": "1"})
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestCommentDocumentToModel(t *testing.T) {
	objID := primitive.NewObjectID()
	created := time.Date(2025, 4, 5, 14, 30, 45, 0, time.UTC)

	comment := commentDocument{
		ID:         objID,
		Text:       "hi",
		Author:     "u1",
		AuthorName: "alice",
		PostID:     "p1",
		CreatedAt:  created,
		UpdatedAt:  created,
	}.toModel()

	assert.Equal(t, model.Comment{
		ID:         objID.Hex(),
		Text:       "hi",
		Author:     "u1",
		AuthorName: "alice",
		PostID:     "p1",
		CreatedAt:  created,
		UpdatedAt:  created,
	}, comment)
}

func TestAuthorLookupPipeline(t *testing.T) {
	match := bson.D{{Key: "post_id", Value: "p1"}}
	pipeline := authorLookupPipeline(match)

	require.Len(t, pipeline, 6)
	assert.Equal(t, bson.D{{Key: "$match", Value: match}}, pipeline[0])
	assert.Equal(t, "$lookup", pipeline[2][0].Key)
	assert.Equal(t, bson.D{
		{Key: "from", Value: usersCollection},
		{Key: "localField", Value: "author_ref"},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: "user"},
	}, pipeline[2][0].Value)
	assert.Equal(t, "$sort", pipeline[5][0].Key)
}

const mockNamespace = "comment_service.comments"

func commentDoc(id primitive.ObjectID, text, author, postID string, at time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "text", Value: text},
		{Key: "author", Value: author},
		{Key: "post_id", Value: postID},
		{Key: "created_at", Value: at},
		{Key: "updated_at", Value: at},
	}
}

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	created := time.Date(2025, 4, 5, 14, 30, 45, 0, time.UTC)
	serverErr := mtest.CreateCommandErrorResponse(mtest.CommandError{
		Code:    2,
		Name:    "BadValue",
		Message: "bad value",
	})

	mt.Run("insert assigns id and timestamps", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB, nil)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		before := time.Now().UTC().Add(-time.Second)
		comment, err := s.Insert(ctx, model.Comment{ID: "client-id", Text: "hi", Author: "alice", PostID: "p1"})
		require.NoError(mt, err)

		assert.True(mt, primitive.IsValidObjectID(comment.ID))
		assert.NotEqual(mt, "client-id", comment.ID)
		assert.Equal(mt, "hi", comment.Text)
		assert.Equal(mt, "p1", comment.PostID)
		assert.True(mt, comment.CreatedAt.After(before))
		assert.Equal(mt, comment.CreatedAt, comment.UpdatedAt)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "insert", evt.CommandName)
	})

	mt.Run("insert failure", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB, nil)
		mt.AddMockResponses(serverErr)

		_, err := s.Insert(ctx, model.Comment{Text: "hi", Author: "alice"})
		assert.ErrorContains(mt, err, "creating comment")
	})

	mt.Run("find by id", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB, nil)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockNamespace, mtest.FirstBatch,
			commentDoc(id, "hi", "alice", "p1", created)))

		comment, err := s.FindByID(ctx, id.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, model.Comment{
			ID:        id.Hex(),
			Text:      "hi",
			Author:    "alice",
			PostID:    "p1",
			CreatedAt: created,
			UpdatedAt: created,
		}, comment)
	})

	mt.Run("find by id missing", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB, nil)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockNamespace, mtest.FirstBatch))

		_, err := s.FindByID(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("find by malformed id", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB, nil)

		_, err := s.FindByID(ctx, "not-an-object-id")
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, ErrNotFound)
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("find filters by post", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB, nil)
		first, second := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockNamespace, mtest.FirstBatch,
			commentDoc(first, "one", "alice", "p1", created),
			commentDoc(second, "two", "bob", "p1", created.Add(time.Minute)),
		))

		comments, err := s.Find(ctx, Filter{model.FieldPostID: "p1"})
		require.NoError(mt, err)
		require.Len(mt, comments, 2)
		assert.Equal(mt, first.Hex(), comments[0].ID)
		assert.Equal(mt, second.Hex(), comments[1].ID)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "find", evt.CommandName)
		postID, ok := evt.Command.Lookup("filter", "post_id").StringValueOK()
		assert.True(mt, ok)
		assert.Equal(mt, "p1", postID)
	})

	mt.Run("find empty", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB, nil)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockNamespace, mtest.FirstBatch))

		comments, err := s.Find(ctx, Filter{model.FieldPostID: "none"})
		require.NoError(mt, err)
		assert.NotNil(mt, comments)
		assert.Empty(mt, comments)
	})

	mt.Run("find unknown field", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB, nil)

		_, err := s.Find(ctx, Filter{"likes": "3"})
		assert.ErrorIs(mt, err, ErrUnknownField)
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("update", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB, nil)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{
			Key:   "value",
			Value: commentDoc(id, "edited", "bob", "p1", created),
		}))

		comment, err := s.UpdateByID(ctx, id.Hex(), Fields{model.FieldText: "edited", model.FieldAuthor: "bob"})
		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), comment.ID)
		assert.Equal(mt, "edited", comment.Text)
		assert.Equal(mt, "p1", comment.PostID)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "findAndModify", evt.CommandName)
		text, ok := evt.Command.Lookup("update", "$set", "text").StringValueOK()
		assert.True(mt, ok)
		assert.Equal(mt, "edited", text)
		assert.True(mt, evt.Command.Lookup("update", "$set", "post_id").IsZero())
	})

	mt.Run("update missing", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB, nil)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := s.UpdateByID(ctx, primitive.NewObjectID().Hex(), Fields{model.FieldText: "edited"})
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("update immutable field", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB, nil)

		_, err := s.UpdateByID(ctx, primitive.NewObjectID().Hex(), Fields{model.FieldPostID: "p2"})
		assert.ErrorIs(mt, err, ErrImmutableField)
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("delete", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB, nil)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{
			Key:   "value",
			Value: commentDoc(id, "hi", "alice", "", created),
		}))

		comment, err := s.DeleteByID(ctx, id.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, id.Hex(), comment.ID)
	})

	mt.Run("delete missing", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB, nil)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := s.DeleteByID(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("delete failure", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB, nil)
		mt.AddMockResponses(serverErr)

		_, err := s.DeleteByID(ctx, primitive.NewObjectID().Hex())
		require.Error(mt, err)
		assert.NotErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("find with expansion", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB, nil)
		id := primitive.NewObjectID()
		doc := append(commentDoc(id, "hi", "u1", "p1", created), bson.E{Key: "author_name", Value: "alice"})
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockNamespace, mtest.FirstBatch, doc))

		comments, err := s.FindWithExpansion(ctx, Filter{model.FieldPostID: "p1"}, RefAuthor)
		require.NoError(mt, err)
		require.Len(mt, comments, 1)
		assert.Equal(mt, "alice", comments[0].AuthorName)
		assert.Equal(mt, "u1", comments[0].Author)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "aggregate", evt.CommandName)
	})

	mt.Run("find with expansion empty", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB, nil)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mockNamespace, mtest.FirstBatch))

		comments, err := s.FindWithExpansion(ctx, Filter{model.FieldID: primitive.NewObjectID().Hex()}, RefAuthor)
		require.NoError(mt, err)
		assert.NotNil(mt, comments)
		assert.Empty(mt, comments)
	})

	mt.Run("find with unknown reference", func(mt *mtest.T) {
		s := NewMongoStore(mt.DB, nil)

		_, err := s.FindWithExpansion(ctx, Filter{}, "post")
		assert.ErrorIs(mt, err, ErrUnknownReference)
		assert.Nil(mt, mt.GetStartedEvent())
	})
}
