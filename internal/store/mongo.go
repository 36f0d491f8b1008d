package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwise1/comment_service/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	commentsCollection = "comments"
	usersCollection    = "users"
)

// commentDocument is the on-disk shape of a comment in MongoDB.
type commentDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Text       string             `bson:"text"`
	Author     string             `bson:"author"`
	PostID     string             `bson:"post_id,omitempty"`
	AuthorName string             `bson:"author_name,omitempty"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

func (d commentDocument) toModel() model.Comment {
	return model.Comment{
		ID:         d.ID.Hex(),
		Text:       d.Text,
		Author:     d.Author,
		AuthorName: d.AuthorName,
		PostID:     d.PostID,
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
	}
}

// MongoStore persists comments in a MongoDB collection. Ids are ObjectID hex
// strings; a malformed id is reported as an error rather than a miss.
type MongoStore struct {
	comments *mongo.Collection
	users    *mongo.Collection
	logger   *zap.Logger
}

var _ Store[model.Comment] = (*MongoStore)(nil)

func NewMongoStore(database *mongo.Database, logger *zap.Logger) *MongoStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MongoStore{
		comments: database.Collection(commentsCollection),
		users:    database.Collection(usersCollection),
		logger:   logger,
	}
}

// EnsureIndexes creates the indexes list queries rely on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.comments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "post_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("creating comment indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Find(ctx context.Context, filter Filter) ([]model.Comment, error) {
	query, err := mongoFilter(filter)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.comments.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("finding comments: %w", err)
	}
	return decodeComments(ctx, cursor)
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (model.Comment, error) {
	objID, err := objectID(id)
	if err != nil {
		return model.Comment{}, err
	}

	var doc commentDocument
	err = s.comments.FindOne(ctx, bson.M{"_id": objID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Comment{}, ErrNotFound
		}
		return model.Comment{}, fmt.Errorf("getting comment: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) Insert(ctx context.Context, comment model.Comment) (model.Comment, error) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := commentDocument{
		ID:        primitive.NewObjectID(),
		Text:      comment.Text,
		Author:    comment.Author,
		PostID:    comment.PostID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.comments.InsertOne(ctx, doc); err != nil {
		return model.Comment{}, fmt.Errorf("creating comment: %w", err)
	}

	s.logger.Debug("comment inserted", zap.String("id", doc.ID.Hex()))
	return doc.toModel(), nil
}

func (s *MongoStore) UpdateByID(ctx context.Context, id string, fields Fields) (model.Comment, error) {
	if err := checkMutable(fields); err != nil {
		return model.Comment{}, err
	}
	objID, err := objectID(id)
	if err != nil {
		return model.Comment{}, err
	}

	set := bson.M{"updated_at": time.Now().UTC().Truncate(time.Millisecond)}
	for field, value := range fields {
		set[mongoField(field)] = value
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc commentDocument
	err = s.comments.FindOneAndUpdate(ctx, bson.M{"_id": objID}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Comment{}, ErrNotFound
		}
		return model.Comment{}, fmt.Errorf("updating comment: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) DeleteByID(ctx context.Context, id string) (model.Comment, error) {
	objID, err := objectID(id)
	if err != nil {
		return model.Comment{}, err
	}

	var doc commentDocument
	err = s.comments.FindOneAndDelete(ctx, bson.M{"_id": objID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.Comment{}, ErrNotFound
		}
		return model.Comment{}, fmt.Errorf("deleting comment: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) FindWithExpansion(ctx context.Context, filter Filter, ref string) ([]model.Comment, error) {
	if err := checkReference(ref); err != nil {
		return nil, err
	}
	match, err := mongoFilter(filter)
	if err != nil {
		return nil, err
	}

	cursor, err := s.comments.Aggregate(ctx, authorLookupPipeline(match))
	if err != nil {
		return nil, fmt.Errorf("finding comments with authors: %w", err)
	}
	return decodeComments(ctx, cursor)
}

// authorLookupPipeline joins each comment to the user whose _id equals the
// comment author. An author that parses as an ObjectID is matched as one,
// otherwise as a plain string, so the join always runs on the _id index.
// Unmatched authors keep no author_name.
func authorLookupPipeline(match bson.D) mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "author_ref", Value: bson.D{{Key: "$convert", Value: bson.D{
				{Key: "input", Value: "$author"},
				{Key: "to", Value: "objectId"},
				{Key: "onError", Value: "$author"},
				{Key: "onNull", Value: "$author"},
			}}}},
		}}},
		bson.D{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "author_ref"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "user"},
		}}},
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "author_name", Value: bson.D{{Key: "$arrayElemAt", Value: bson.A{"$user.username", 0}}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{{Key: "user", Value: 0}, {Key: "author_ref", Value: 0}}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}}},
	}
}

func mongoFilter(filter Filter) (bson.D, error) {
	if err := checkFilter(filter); err != nil {
		return nil, err
	}

	query := bson.D{}
	for _, field := range sortedKeys(filter) {
		value := filter[field]
		if field == model.FieldID {
			objID, err := objectID(value)
			if err != nil {
				return nil, err
			}
			query = append(query, bson.E{Key: "_id", Value: objID})
			continue
		}
		query = append(query, bson.E{Key: mongoField(field), Value: value})
	}
	return query, nil
}

func mongoField(field string) string {
	switch field {
	case model.FieldID:
		return "_id"
	case model.FieldPostID:
		return "post_id"
	default:
		return field
	}
}

func objectID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid comment id %q: %w", id, err)
	}
	return objID, nil
}

func decodeComments(ctx context.Context, cursor *mongo.Cursor) ([]model.Comment, error) {
	var docs []commentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding comments: %w", err)
	}

	comments := make([]model.Comment, 0, len(docs))
	for _, doc := range docs {
		comments = append(comments, doc.toModel())
	}
	return comments, nil
}
