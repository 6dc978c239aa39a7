package telemetry

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

type fakeAggregateRepo struct {
	fakeMetricRepo

	sectorRows []*repository.SectorAggregate
	sectorErr  error
	userRows   []*repository.UserUsageAggregate
	gotSince   time.Time
}

func (f *fakeAggregateRepo) SectorAggregates(ctx context.Context, since *time.Time) ([]*repository.SectorAggregate, error) {
	return f.sectorRows, f.sectorErr
}

func (f *fakeAggregateRepo) UserUsageAggregates(ctx context.Context, since time.Time) ([]*repository.UserUsageAggregate, error) {
	f.gotSince = since
	return f.userRows, nil
}

type fakeConversationRepo struct {
	summaries []*repository.ActiveConversationSummary
}

func (f *fakeConversationRepo) Create(ctx context.Context, c *entity.Conversation) error  { return nil }
func (f *fakeConversationRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	return nil, nil
}
func (f *fakeConversationRepo) Update(ctx context.Context, c *entity.Conversation) error { return nil }
func (f *fakeConversationRepo) Delete(ctx context.Context, id string) error              { return nil }
func (f *fakeConversationRepo) ListByUser(ctx context.Context, userID string, page *repository.Pagination) (*repository.PagedResult[*entity.Conversation], error) {
	return &repository.PagedResult[*entity.Conversation]{}, nil
}
func (f *fakeConversationRepo) ListActive(ctx context.Context) ([]*repository.ActiveConversationSummary, error) {
	return f.summaries, nil
}

func floatPtr(v float64) *float64 { return &v }

func TestAggregator_BySector_Rounding(t *testing.T) {
	last := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	repo := &fakeAggregateRepo{
		sectorRows: []*repository.SectorAggregate{
			{
				Sector:         "Automotivo",
				Count:          3,
				SuccessCount:   2,
				AvgTotalTimeMs: floatPtr(433.3333333),
				AvgTotalTokens: floatPtr(616.6666667),
				AvgRagScore:    floatPtr(0.823456),
				LastCreatedAt:  &last,
			},
			{Sector: "Energia", Count: 0},
		},
	}
	agg := NewAggregator(repo, nil)

	summaries, err := agg.BySector(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, "Automotivo", s.Sector)
	assert.Equal(t, int64(3), s.Count)
	assert.Equal(t, 433.33, s.AvgTotalTimeMs)
	assert.Equal(t, int64(617), s.AvgTotalTokens)
	require.NotNil(t, s.AvgRagScore)
	assert.Equal(t, 0.8235, *s.AvgRagScore)
	assert.InDelta(t, 2.0/3.0, s.SuccessRate, 1e-12)
	assert.Equal(t, &last, s.LastCreatedAt)
}

func TestAggregator_BySector_StoreError(t *testing.T) {
	repo := &fakeAggregateRepo{
		sectorErr: apperrors.New(apperrors.CodeStoreUnavailable, "store unavailable"),
	}
	agg := NewAggregator(repo, nil)

	_, err := agg.BySector(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeStoreUnavailable))
}

func TestAggregator_ByUser_Window(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	repo := &fakeAggregateRepo{
		userRows: []*repository.UserUsageAggregate{
			{
				UserID:         "u-1",
				Email:          "ana@example.com",
				FullName:       "Ana Silva",
				ExecutionCount:   5,
				SuccessCount:     5,
				PromptTokens:     2500,
				CompletionTokens: 750,
				TotalTokens:      3250,
				AvgTotalTimeMs:   floatPtr(410.005),
			},
			// 无记录的活跃用户仍出现，聚合值为零
			{UserID: "u-2", Email: "bruno@example.com", FullName: "Bruno Costa"},
		},
	}
	agg := NewAggregator(repo, nil)
	agg.now = func() time.Time { return now }

	summaries, err := agg.ByUser(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, now.AddDate(0, 0, -DefaultUserWindowDays), repo.gotSince)
	assert.Equal(t, int64(2500), summaries[0].PromptTokens)
	assert.Equal(t, int64(750), summaries[0].CompletionTokens)
	assert.Equal(t, int64(3250), summaries[0].TotalTokens)
	require.NotNil(t, summaries[0].AvgTotalTimeMs)
	assert.Equal(t, 410.01, *summaries[0].AvgTotalTimeMs)

	assert.Equal(t, int64(0), summaries[1].ExecutionCount)
	assert.Equal(t, int64(0), summaries[1].PromptTokens)
	assert.Nil(t, summaries[1].AvgTotalTimeMs)
	assert.Nil(t, summaries[1].LastExecutionAt)
}

func TestAggregator_ByUser_InvalidWindow(t *testing.T) {
	agg := NewAggregator(&fakeAggregateRepo{}, nil)

	_, err := agg.ByUser(context.Background(), -7)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidRange))
}

func TestAggregator_ActiveConversations(t *testing.T) {
	now := time.Now()
	convRepo := &fakeConversationRepo{
		summaries: []*repository.ActiveConversationSummary{
			{ConversationID: "c-2", Title: "mais recente", UpdatedAt: now},
			{ConversationID: "c-1", Title: "mais antiga", UpdatedAt: now.Add(-time.Hour)},
		},
	}
	agg := NewAggregator(&fakeAggregateRepo{}, convRepo)

	got, err := agg.ActiveConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c-2", got[0].ConversationID)
	assert.Equal(t, "c-1", got[1].ConversationID)
}
