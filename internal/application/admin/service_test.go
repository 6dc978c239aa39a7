package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-agent-api/internal/domain/entity"
	"rag-agent-api/internal/domain/repository"
	apperrors "rag-agent-api/pkg/errors"
)

type fakeUserRepo struct {
	byID  map[string]*entity.User
	users []*entity.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *entity.User) error { return nil }
func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return f.byID[id], nil
}
func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return nil, nil
}
func (f *fakeUserRepo) Update(ctx context.Context, user *entity.User) error { return nil }
func (f *fakeUserRepo) Delete(ctx context.Context, id string) error         { return nil }
func (f *fakeUserRepo) List(ctx context.Context, page *repository.Pagination) (*repository.PagedResult[*entity.User], error) {
	return &repository.PagedResult[*entity.User]{Items: f.users, Total: int64(len(f.users))}, nil
}

type fakeSystemLogRepo struct {
	gotLevel entity.LogLevel
	logs     []*entity.SystemLog
}

func (f *fakeSystemLogRepo) Create(ctx context.Context, log *entity.SystemLog) error { return nil }
func (f *fakeSystemLogRepo) List(ctx context.Context, level entity.LogLevel, page *repository.Pagination) (*repository.PagedResult[*entity.SystemLog], error) {
	f.gotLevel = level
	return &repository.PagedResult[*entity.SystemLog]{Items: f.logs, Total: int64(len(f.logs))}, nil
}

type fakeTokenUsageRepo struct {
	gotSince  time.Time
	gotUserID string
	sum       int64
	models    []*repository.ModelUsageAggregate
}

func (f *fakeTokenUsageRepo) Create(ctx context.Context, usage *entity.TokenUsage) error { return nil }
func (f *fakeTokenUsageRepo) SumByUser(ctx context.Context, userID string, since time.Time) (int64, error) {
	f.gotUserID = userID
	f.gotSince = since
	return f.sum, nil
}
func (f *fakeTokenUsageRepo) AggregateByModel(ctx context.Context, since time.Time) ([]*repository.ModelUsageAggregate, error) {
	f.gotSince = since
	return f.models, nil
}

func newTestService(userRepo *fakeUserRepo, logRepo *fakeSystemLogRepo, usageRepo *fakeTokenUsageRepo) *Service {
	return NewService(userRepo, logRepo, usageRepo)
}

func TestService_UserTokenTotal(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	userRepo := &fakeUserRepo{byID: map[string]*entity.User{
		"u-1": {ID: "u-1", Email: "ana@example.com"},
	}}
	usageRepo := &fakeTokenUsageRepo{sum: 3250}

	svc := newTestService(userRepo, &fakeSystemLogRepo{}, usageRepo)
	svc.now = func() time.Time { return now }

	total, err := svc.UserTokenTotal(context.Background(), "u-1", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3250), total)
	assert.Equal(t, "u-1", usageRepo.gotUserID)
	assert.Equal(t, now.AddDate(0, 0, -DefaultUsageWindowDays), usageRepo.gotSince)
}

func TestService_UserTokenTotal_UnknownUser(t *testing.T) {
	svc := newTestService(&fakeUserRepo{byID: map[string]*entity.User{}}, &fakeSystemLogRepo{}, &fakeTokenUsageRepo{})

	_, err := svc.UserTokenTotal(context.Background(), "u-missing", 30)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUserNotFound))
}

func TestService_ModelUsage(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	usageRepo := &fakeTokenUsageRepo{
		models: []*repository.ModelUsageAggregate{
			{Model: "gpt-4o", TotalTokens: 10000, TotalCost: 0.25, Count: 12},
		},
	}

	svc := newTestService(&fakeUserRepo{}, &fakeSystemLogRepo{}, usageRepo)
	svc.now = func() time.Time { return now }

	rows, err := svc.ModelUsage(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "gpt-4o", rows[0].Model)
	assert.Equal(t, now.AddDate(0, 0, -7), usageRepo.gotSince)
}

func TestService_ModelUsage_InvalidWindow(t *testing.T) {
	svc := newTestService(&fakeUserRepo{}, &fakeSystemLogRepo{}, &fakeTokenUsageRepo{})

	_, err := svc.ModelUsage(context.Background(), -1)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidRange))
}

func TestService_ListLogs_LevelFilter(t *testing.T) {
	logRepo := &fakeSystemLogRepo{
		logs: []*entity.SystemLog{{ID: 1, Level: entity.LogLevelError, Source: "http", Message: "POST /v1/metrics/executions"}},
	}
	svc := newTestService(&fakeUserRepo{}, logRepo, &fakeTokenUsageRepo{})

	result, err := svc.ListLogs(context.Background(), entity.LogLevelError, &repository.Pagination{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Total)
	assert.Equal(t, entity.LogLevelError, logRepo.gotLevel)
}

func TestService_ListUsers(t *testing.T) {
	userRepo := &fakeUserRepo{users: []*entity.User{{ID: "u-1"}, {ID: "u-2"}}}
	svc := newTestService(userRepo, &fakeSystemLogRepo{}, &fakeTokenUsageRepo{})

	result, err := svc.ListUsers(context.Background(), &repository.Pagination{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Total)
}
