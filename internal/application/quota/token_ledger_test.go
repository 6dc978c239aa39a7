package quota

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rag-agent-api/internal/domain/entity"
	"rag-agent-api/internal/domain/repository"
	"rag-agent-api/internal/domain/service"
)

type fakeTokenUsageRepo struct {
	created []*entity.TokenUsage
}

func (f *fakeTokenUsageRepo) Create(ctx context.Context, usage *entity.TokenUsage) error {
	f.created = append(f.created, usage)
	return nil
}

func (f *fakeTokenUsageRepo) SumByUser(ctx context.Context, userID string, since time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeTokenUsageRepo) AggregateByModel(ctx context.Context, since time.Time) ([]*repository.ModelUsageAggregate, error) {
	return nil, nil
}

func TestTokenLedger_RecordUsage(t *testing.T) {
	repo := &fakeTokenUsageRepo{}
	ledger := NewTokenLedger(repo, map[string]ModelPricing{
		"gpt-4o": {PromptPer1K: 0.005, CompletionPer1K: 0.015},
	})

	userID := "u-1"
	err := ledger.RecordUsage(context.Background(), service.TokenUsageInput{
		UserID:           &userID,
		Model:            "GPT-4o",
		PromptTokens:     2000,
		CompletionTokens: 1000,
		TotalTokens:      3000,
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)

	usage := repo.created[0]
	assert.Equal(t, "GPT-4o", usage.Model)
	assert.Equal(t, 3000, usage.TotalTokens)
	// 2000/1000*0.005 + 1000/1000*0.015
	assert.InDelta(t, 0.025, usage.CostUSD, 1e-9)
}

func TestTokenLedger_UnknownModelZeroCost(t *testing.T) {
	repo := &fakeTokenUsageRepo{}
	ledger := NewTokenLedger(repo, nil)

	err := ledger.RecordUsage(context.Background(), service.TokenUsageInput{
		Model:        "modelo-desconhecido",
		PromptTokens: 100,
		TotalTokens:  100,
	})
	require.NoError(t, err)
	require.Len(t, repo.created, 1)
	assert.Zero(t, repo.created[0].CostUSD)
}
