package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bwise1/comment_service/internal/model"
	"github.com/bwise1/comment_service/util"
	"go.uber.org/zap"
)

type memoryEntry struct {
	comment model.Comment
	seq     uint64
}

// MemoryStore keeps comments in process memory. Ids are UUIDv4 strings.
type MemoryStore struct {
	comments map[string]memoryEntry
	users    map[string]model.User
	seq      uint64
	mu       sync.RWMutex
	logger   *zap.Logger
	now      func() time.Time
}

var _ Store[model.Comment] = (*MemoryStore)(nil)

func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryStore{
		comments: make(map[string]memoryEntry),
		users:    make(map[string]model.User),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// PutUser registers a user that author references can expand to.
func (s *MemoryStore) PutUser(user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
}

func (s *MemoryStore) Find(ctx context.Context, filter Filter) ([]model.Comment, error) {
	if err := checkFilter(filter); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	s.logger.Debug("finding comments in memory", zap.Any("filter", filter))
	return s.match(filter), nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id string) (model.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.comments[id]
	if !exists {
		return model.Comment{}, ErrNotFound
	}
	return entry.comment, nil
}

func (s *MemoryStore) Insert(ctx context.Context, comment model.Comment) (model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	comment.ID = util.GenerateUUID().String()
	comment.AuthorName = ""
	comment.CreatedAt = now
	comment.UpdatedAt = now

	s.seq++
	s.comments[comment.ID] = memoryEntry{comment: comment, seq: s.seq}

	s.logger.Debug("comment added", zap.String("id", comment.ID))
	return comment, nil
}

func (s *MemoryStore) UpdateByID(ctx context.Context, id string, fields Fields) (model.Comment, error) {
	if err := checkMutable(fields); err != nil {
		return model.Comment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.comments[id]
	if !exists {
		return model.Comment{}, ErrNotFound
	}

	if text, ok := fields[model.FieldText]; ok {
		entry.comment.Text = text.(string)
	}
	if author, ok := fields[model.FieldAuthor]; ok {
		entry.comment.Author = author.(string)
	}
	entry.comment.UpdatedAt = s.now()
	s.comments[id] = entry

	return entry.comment, nil
}

func (s *MemoryStore) DeleteByID(ctx context.Context, id string) (model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.comments[id]
	if !exists {
		return model.Comment{}, ErrNotFound
	}
	delete(s.comments, id)

	s.logger.Debug("comment deleted", zap.String("id", id))
	return entry.comment, nil
}

func (s *MemoryStore) FindWithExpansion(ctx context.Context, filter Filter, ref string) ([]model.Comment, error) {
	if err := checkReference(ref); err != nil {
		return nil, err
	}
	if err := checkFilter(filter); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	comments := s.match(filter)
	for i := range comments {
		if user, ok := s.users[comments[i].Author]; ok {
			comments[i].AuthorName = user.Username
		}
	}
	return comments, nil
}

// match must be called with s.mu held.
func (s *MemoryStore) match(filter Filter) []model.Comment {
	entries := make([]memoryEntry, 0, len(s.comments))
	for _, entry := range s.comments {
		if matches(entry.comment, filter) {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	result := make([]model.Comment, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entry.comment)
	}
	return result
}

func matches(comment model.Comment, filter Filter) bool {
	for field, want := range filter {
		var got string
		switch field {
		case model.FieldID:
			got = comment.ID
		case model.FieldPostID:
			got = comment.PostID
		case model.FieldAuthor:
			got = comment.Author
		}
		if got != want {
			return false
		}
	}
	return true
}
