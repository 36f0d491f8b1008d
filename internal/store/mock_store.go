package store

import (
	"context"

	"github.com/bwise1/comment_service/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

var _ Store[model.Comment] = (*MockStore)(nil)

func (m *MockStore) Find(ctx context.Context, filter Filter) ([]model.Comment, error) {
	args := m.Called(filter)
	comments, _ := args.Get(0).([]model.Comment)
	return comments, args.Error(1)
}

func (m *MockStore) FindByID(ctx context.Context, id string) (model.Comment, error) {
	args := m.Called(id)
	return args.Get(0).(model.Comment), args.Error(1)
}

func (m *MockStore) Insert(ctx context.Context, comment model.Comment) (model.Comment, error) {
	args := m.Called(comment)
	return args.Get(0).(model.Comment), args.Error(1)
}

func (m *MockStore) UpdateByID(ctx context.Context, id string, fields Fields) (model.Comment, error) {
	args := m.Called(id, fields)
	return args.Get(0).(model.Comment), args.Error(1)
}

func (m *MockStore) DeleteByID(ctx context.Context, id string) (model.Comment, error) {
	args := m.Called(id)
	return args.Get(0).(model.Comment), args.Error(1)
}

func (m *MockStore) FindWithExpansion(ctx context.Context, filter Filter, ref string) ([]model.Comment, error) {
	args := m.Called(filter, ref)
	comments, _ := args.Get(0).([]model.Comment)
	return comments, args.Error(1)
}
