package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/primaverasorvetes810-collab/studio-sub000/internal/models"
)

func TestFold(t *testing.T) {
	cases := map[string]string{
		"Açaí":          "acai",
		"  PÃO de Mel ": "pao de mel",
		"crème brûlée":  "creme brulee",
		"":              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Fold(in), in)
	}
}

func TestFilter(t *testing.T) {
	products := []models.Product{
		{Name: "Açaí 500ml", Description: "com granola"},
		{Name: "Sorvete de Limão", Description: "massa cremosa"},
		{Name: "Picolé", Description: "limão siciliano"},
	}

	t.Run("blank query keeps all", func(t *testing.T) {
		assert.Len(t, Filter(products, "   "), 3)
	})

	t.Run("accent and case insensitive", func(t *testing.T) {
		got := Filter(products, "ACAI")
		if assert.Len(t, got, 1) {
			assert.Equal(t, "Açaí 500ml", got[0].Name)
		}
	})

	t.Run("matches description", func(t *testing.T) {
		got := Filter(products, "limao")
		assert.Len(t, got, 2)
		assert.Equal(t, "Sorvete de Limão", got[0].Name)
	})

	t.Run("every word must match", func(t *testing.T) {
		assert.Len(t, Filter(products, "limao cremosa"), 1)
		assert.Empty(t, Filter(products, "limao chocolate"))
	})
}
