package service

import (
	"bytes"
	"context"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/game-storefront/internal/model"
	"github.com/iliyamo/game-storefront/internal/queue"
)

type MockUserStore struct{ mock.Mock }

func (m *MockUserStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserStore) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserStore) Insert(ctx context.Context, u *model.User) (uint64, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockUserStore) UpdateToken(ctx context.Context, id uint64, token string) error {
	return m.Called(ctx, id, token).Error(0)
}

func (m *MockUserStore) ListAll(ctx context.Context) ([]model.UserProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UserProfile), args.Error(1)
}

func (m *MockUserStore) HasRole(ctx context.Context, role string) (bool, error) {
	args := m.Called(ctx, role)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) FindWithPurchases(ctx context.Context, id uint64) (*model.UserProfile, []model.PurchaseHistoryEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.UserProfile), args.Get(1).([]model.PurchaseHistoryEntry), args.Error(2)
}

type MockGameStore struct{ mock.Mock }

func (m *MockGameStore) Insert(ctx context.Context, g *model.Game) error {
	return m.Called(ctx, g).Error(0)
}

func (m *MockGameStore) ListActive(ctx context.Context) ([]*model.Game, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Game), args.Error(1)
}

func (m *MockGameStore) FindActive(ctx context.Context, id uint64) (*model.Game, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Game), args.Error(1)
}

func (m *MockGameStore) MarkDeleted(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

type MockPurchaseStore struct{ mock.Mock }

func (m *MockPurchaseStore) Exists(ctx context.Context, userID, gameID uint64) (bool, error) {
	args := m.Called(ctx, userID, gameID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPurchaseStore) Insert(ctx context.Context, p *model.Purchase) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockPurchaseStore) DeleteByGame(ctx context.Context, gameID uint64) (int64, error) {
	args := m.Called(ctx, gameID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPurchaseStore) ListForUser(ctx context.Context, userID uint64, gameID *uint64) ([]model.OwnedGame, error) {
	args := m.Called(ctx, userID, gameID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OwnedGame), args.Error(1)
}

func (m *MockPurchaseStore) ListForAdmin(ctx context.Context, userID *uint64) ([]model.AdminPurchase, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AdminPurchase), args.Error(1)
}

func (m *MockPurchaseStore) ListWithUsers(ctx context.Context) ([]model.PurchaseWithUser, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PurchaseWithUser), args.Error(1)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(ev queue.PurchaseRecordedEvent) bool {
	return m.Called(ev).Bool(0)
}

type MockPurger struct{ mock.Mock }

func (m *MockPurger) Purge(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// formFiles builds parsed multipart file headers for field.
func formFiles(t *testing.T, field string, names ...string) []*multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, name := range names {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write([]byte("content of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File[field]
}
