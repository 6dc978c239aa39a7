package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rag-agent-api/pkg/errors"
)

func validInvocation() *Invocation {
	avg := 0.82
	top := 0.91
	return &Invocation{
		ExecutionID: "exec-001",
		UserInput:   "qual o prazo de entrega?",
		Response:    "o prazo padrão é de 5 dias úteis.",
		Timings:     Timings{TotalMs: 420, LLMMs: 300, RetrievalMs: 80, ToolMs: 0},
		Tokens:      Tokens{Prompt: 500, Completion: 150, Total: 650},
		Tools:       Tools{Count: 0, SuccessRate: 1},
		RAG: RAG{
			Query:         "prazo de entrega",
			ResultsCount:  5,
			AverageScore:  &avg,
			TopChunkScore: &top,
			Hit:           true,
		},
		Sector:       "Automotivo",
		IsSuccessful: true,
	}
}

func TestInvocation_Validate_OK(t *testing.T) {
	inv := validInvocation()
	flags, err := inv.Validate()
	require.NoError(t, err)
	assert.Empty(t, flags)
}

func TestInvocation_Validate_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Invocation)
	}{
		{"empty execution_id", func(inv *Invocation) { inv.ExecutionID = "  " }},
		{"empty user_input", func(inv *Invocation) { inv.UserInput = "" }},
		{"empty response", func(inv *Invocation) { inv.Response = "" }},
		{"failure without error text", func(inv *Invocation) {
			inv.IsSuccessful = false
			inv.ErrorMessage = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := validInvocation()
			tt.mutate(inv)
			_, err := inv.Validate()
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.CodeMissingRequiredField))
		})
	}
}

func TestInvocation_Validate_InvalidRange(t *testing.T) {
	badScore := 1.5
	negScore := -0.1
	badRating := 6

	tests := []struct {
		name   string
		mutate func(*Invocation)
	}{
		{"rating out of range", func(inv *Invocation) { inv.Rating = &badRating }},
		{"negative timing", func(inv *Invocation) { inv.Timings.LLMMs = -1 }},
		{"negative tokens", func(inv *Invocation) { inv.Tokens.Prompt = -1 }},
		{"negative tool count", func(inv *Invocation) { inv.Tools.Count = -1 }},
		{"tool success rate above one", func(inv *Invocation) { inv.Tools.SuccessRate = 1.1 }},
		{"negative rag results", func(inv *Invocation) { inv.RAG.ResultsCount = -1 }},
		{"avg score above one", func(inv *Invocation) { inv.RAG.AverageScore = &badScore }},
		{"top score below zero", func(inv *Invocation) { inv.RAG.TopChunkScore = &negScore }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := validInvocation()
			tt.mutate(inv)
			_, err := inv.Validate()
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidRange))
		})
	}
}

func TestInvocation_Validate_QualityFlags(t *testing.T) {
	t.Run("token mismatch", func(t *testing.T) {
		inv := validInvocation()
		inv.Tokens.Total = 700
		flags, err := inv.Validate()
		require.NoError(t, err)
		assert.Contains(t, flags, FlagTokenMismatch)
	})

	t.Run("timing sum exceeds total", func(t *testing.T) {
		inv := validInvocation()
		inv.Timings.TotalMs = 100
		flags, err := inv.Validate()
		require.NoError(t, err)
		assert.Contains(t, flags, FlagTimingSumMismatch)
	})

	t.Run("timing sum within tolerance", func(t *testing.T) {
		inv := validInvocation()
		inv.Timings.TotalMs = 379.5
		flags, err := inv.Validate()
		require.NoError(t, err)
		assert.NotContains(t, flags, FlagTimingSumMismatch)
	})

	t.Run("unknown sector flagged not rejected", func(t *testing.T) {
		inv := validInvocation()
		inv.Sector = "Setor Inexistente"
		flags, err := inv.Validate()
		require.NoError(t, err)
		assert.Contains(t, flags, FlagUnknownSector)
	})

	t.Run("empty sector not flagged", func(t *testing.T) {
		inv := validInvocation()
		inv.Sector = ""
		flags, err := inv.Validate()
		require.NoError(t, err)
		assert.NotContains(t, flags, FlagUnknownSector)
	})

	t.Run("hit inconsistent with threshold", func(t *testing.T) {
		inv := validInvocation()
		threshold := 0.95
		inv.RelevanceThreshold = &threshold
		flags, err := inv.Validate()
		require.NoError(t, err)
		assert.Contains(t, flags, FlagRagHitInconsistent)
	})

	t.Run("hit trusted without threshold", func(t *testing.T) {
		inv := validInvocation()
		inv.RAG.Hit = false
		flags, err := inv.Validate()
		require.NoError(t, err)
		assert.NotContains(t, flags, FlagRagHitInconsistent)
	})
}
