package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSector(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		known bool
	}{
		{"canonical", "Automotivo", string(SectorAutomotivo), true},
		{"lowercase", "automotivo", string(SectorAutomotivo), true},
		{"uppercase with spaces", "  ENERGIA ", string(SectorEnergia), true},
		{"accented canonical", "Agronegócio", string(SectorAgronegocio), true},
		{"unknown preserved", "Setor Desconhecido", "Setor Desconhecido", false},
		{"unknown trimmed", "  outro  ", "outro", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeSector(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, IsKnownSector(tt.input))
		})
	}
}

func TestKnownSectors(t *testing.T) {
	sectors := KnownSectors()
	assert.Len(t, sectors, 14)

	seen := make(map[Sector]bool)
	for _, s := range sectors {
		assert.False(t, seen[s], "duplicate sector %s", s)
		seen[s] = true
		assert.True(t, IsKnownSector(string(s)))
	}
}

func TestNewConversation_NormalizesSector(t *testing.T) {
	c := NewConversation("user-1", "title", "energia", "prompt")
	assert.Equal(t, string(SectorEnergia), c.Sector)
	assert.Equal(t, ConversationStatusActive, c.Status)
	assert.True(t, c.IsActive())
}
