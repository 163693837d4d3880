package taxonomy

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// searchMinScore is the fuzzy fallback cutoff; below this a term is noise.
const searchMinScore = 55

// Service loads a user's vocabularies and answers search queries over them.
type Service struct {
	repo   *Repository
	logger *slog.Logger
}

// NewService creates a new taxonomy service
func NewService(repo *Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Vocabularies fetches the user's category and tag names in creation order.
func (s *Service) Vocabularies(ctx context.Context, userID uuid.UUID) (categories, tags []string, err error) {
	categories, err = s.repo.CategoryNames(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	tags, err = s.repo.TagNames(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	return categories, tags, nil
}

// Search runs a typo-tolerant search over the user's vocabularies. The
// full-text index is tried first; when it comes back empty the
// Levenshtein-based ranker takes over, which catches heavier misspellings
// than the index's single-edit fuzziness.
func (s *Service) Search(ctx context.Context, userID uuid.UUID, query string, limit int) ([]VocabResult, error) {
	categories, tags, err := s.Vocabularies(ctx, userID)
	if err != nil {
		return nil, err
	}

	index, err := NewSearchIndex(categories, tags)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := index.Close(); closeErr != nil {
			s.logger.Warn("failed to close vocabulary index", "error", closeErr)
		}
	}()

	results, err := index.Search(query, limit)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		return results, nil
	}

	return s.fuzzyFallback(query, categories, tags, limit), nil
}

func (s *Service) fuzzyFallback(query string, categories, tags []string, limit int) []VocabResult {
	var results []VocabResult
	for _, m := range RankTerms(query, categories, "category", searchMinScore, limit) {
		results = append(results, VocabResult{Name: m.Term, Kind: m.Kind, Score: float64(m.Score) / 100})
	}
	for _, m := range RankTerms(query, tags, "tag", searchMinScore, limit) {
		results = append(results, VocabResult{Name: m.Term, Kind: m.Kind, Score: float64(m.Score) / 100})
	}
	if len(results) > limit && limit > 0 {
		results = results[:limit]
	}
	return results
}
