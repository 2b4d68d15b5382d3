package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"slink-api/internal/entities"
	"slink-api/internal/models"
	"slink-api/internal/repository"
)

type mockURLRepository struct {
	mock.Mock
}

func (m *mockURLRepository) Create(ctx context.Context, url *entities.URL) (*entities.URL, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.URL), args.Error(1)
}

func (m *mockURLRepository) FindByShortCode(ctx context.Context, shortCode string) (*entities.URL, error) {
	args := m.Called(ctx, shortCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.URL), args.Error(1)
}

func (m *mockURLRepository) FindByID(ctx context.Context, id string) (*entities.URL, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.URL), args.Error(1)
}

func (m *mockURLRepository) CodeExists(ctx context.Context, shortCode string) (bool, error) {
	args := m.Called(ctx, shortCode)
	return args.Bool(0), args.Error(1)
}

func (m *mockURLRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockURLRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entities.URL, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	var urls []*entities.URL
	if args.Get(0) != nil {
		urls = args.Get(0).([]*entities.URL)
	}
	return urls, args.Get(1).(int64), args.Error(2)
}

func (m *mockURLRepository) ListAll(ctx context.Context, limit, offset int) ([]*entities.URL, int64, error) {
	args := m.Called(ctx, limit, offset)
	var urls []*entities.URL
	if args.Get(0) != nil {
		urls = args.Get(0).([]*entities.URL)
	}
	return urls, args.Get(1).(int64), args.Error(2)
}

func (m *mockURLRepository) Update(ctx context.Context, id string, userID *string, originalURL, shortCode *string) error {
	args := m.Called(ctx, id, userID, originalURL, shortCode)
	return args.Error(0)
}

func (m *mockURLRepository) Delete(ctx context.Context, id string, userID *string) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

func (m *mockURLRepository) ClaimOwnerless(ctx context.Context, shortCode, originalURL, userID string) (bool, error) {
	args := m.Called(ctx, shortCode, originalURL, userID)
	return args.Bool(0), args.Error(1)
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, id, email, passwordHash string, name *string) (*entities.User, error) {
	args := m.Called(ctx, id, email, passwordHash, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *mockUserRepository) FindByID(ctx context.Context, id string) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context, limit, offset int) ([]*repository.UserWithURLCount, int64, error) {
	args := m.Called(ctx, limit, offset)
	var users []*repository.UserWithURLCount
	if args.Get(0) != nil {
		users = args.Get(0).([]*repository.UserWithURLCount)
	}
	return users, args.Get(1).(int64), args.Error(2)
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, id, role string) (*entities.User, error) {
	args := m.Called(ctx, id, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockVisitRepository struct {
	mock.Mock
}

func (m *mockVisitRepository) Record(ctx context.Context, visit *entities.Visit) error {
	args := m.Called(ctx, visit)
	return args.Error(0)
}

func (m *mockVisitRepository) ListByURL(ctx context.Context, urlID string, limit int) ([]*entities.Visit, error) {
	args := m.Called(ctx, urlID, limit)
	var visits []*entities.Visit
	if args.Get(0) != nil {
		visits = args.Get(0).([]*entities.Visit)
	}
	return visits, args.Error(1)
}

func (m *mockVisitRepository) Stats(ctx context.Context, urlID string) (*entities.VisitStats, error) {
	args := m.Called(ctx, urlID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.VisitStats), args.Error(1)
}

func (m *mockVisitRepository) CountByCountry(ctx context.Context, urlID string, limit int) ([]models.NameCount, error) {
	args := m.Called(ctx, urlID, limit)
	var counts []models.NameCount
	if args.Get(0) != nil {
		counts = args.Get(0).([]models.NameCount)
	}
	return counts, args.Error(1)
}

func (m *mockVisitRepository) CountByDay(ctx context.Context, urlID string, from, to time.Time) ([]models.DateCount, error) {
	args := m.Called(ctx, urlID, from, to)
	var counts []models.DateCount
	if args.Get(0) != nil {
		counts = args.Get(0).([]models.DateCount)
	}
	return counts, args.Error(1)
}
