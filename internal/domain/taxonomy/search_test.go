package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchIndex_MatchesVocabulary(t *testing.T) {
	index, err := NewSearchIndex(
		[]string{"Food & Dining", "Office Supplies"},
		[]string{"coffee", "work"},
	)
	require.NoError(t, err)
	defer index.Close()

	results, err := index.Search("food", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Food & Dining", results[0].Name)
	assert.Equal(t, "category", results[0].Kind)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestSearchIndex_TypoTolerance(t *testing.T) {
	index, err := NewSearchIndex([]string{"Groceries"}, nil)
	require.NoError(t, err)
	defer index.Close()

	// One edit away from "groceries".
	results, err := index.Search("grocerie", 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Groceries", results[0].Name)
}

func TestSearchIndex_FindsTags(t *testing.T) {
	index, err := NewSearchIndex(nil, []string{"coffee", "lunch"})
	require.NoError(t, err)
	defer index.Close()

	results, err := index.Search("coffee", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "tag", results[0].Kind)
}

func TestSearchIndex_NoMatch(t *testing.T) {
	index, err := NewSearchIndex([]string{"Utilities"}, nil)
	require.NoError(t, err)
	defer index.Close()

	results, err := index.Search("zzzzzz", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRankTerms(t *testing.T) {
	terms := []string{"Food & Dining", "Office Supplies", "Other"}

	t.Run("exact match scores highest", func(t *testing.T) {
		results := RankTerms("Other", terms, "category", 50, 10)
		require.NotEmpty(t, results)
		assert.Equal(t, "Other", results[0].Term)
		assert.Equal(t, 100, results[0].Score)
	})

	t.Run("containment scores high", func(t *testing.T) {
		results := RankTerms("food", terms, "category", 50, 10)
		require.NotEmpty(t, results)
		assert.Equal(t, "Food & Dining", results[0].Term)
		assert.GreaterOrEqual(t, results[0].Score, 75)
	})

	t.Run("cutoff drops noise", func(t *testing.T) {
		results := RankTerms("zzzzzz", terms, "category", 50, 10)
		assert.Empty(t, results)
	})

	t.Run("empty query", func(t *testing.T) {
		assert.Nil(t, RankTerms("  ", terms, "category", 50, 10))
	})

	t.Run("limit respected", func(t *testing.T) {
		results := RankTerms("o", []string{"one", "of", "oak", "oar"}, "tag", 0, 2)
		assert.LessOrEqual(t, len(results), 2)
	})
}
