package taxonomy

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_CategoryNames(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	userID := uuid.New()

	mock.ExpectQuery(`SELECT name\s+FROM categories`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"name"}).
			AddRow("Food & Dining").
			AddRow("Office Supplies").
			AddRow("Other"))

	repo := NewRepository(mock)
	names, err := repo.CategoryNames(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, []string{"Food & Dining", "Office Supplies", "Other"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_TagNames(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	userID := uuid.New()

	mock.ExpectQuery(`SELECT name\s+FROM tags`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"name"}).
			AddRow("coffee").
			AddRow("receipt"))

	repo := NewRepository(mock)
	names, err := repo.TagNames(context.Background(), userID)

	require.NoError(t, err)
	assert.Equal(t, []string{"coffee", "receipt"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	userID := uuid.New()
	mock.ExpectQuery(`SELECT name\s+FROM categories`).
		WithArgs(userID).
		WillReturnError(errors.New("connection reset"))

	repo := NewRepository(mock)
	_, err = repo.CategoryNames(context.Background(), userID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to query taxonomy")
}

func TestRepository_EmptyVocabulary(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	userID := uuid.New()
	mock.ExpectQuery(`SELECT name\s+FROM tags`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"name"}))

	repo := NewRepository(mock)
	names, err := repo.TagNames(context.Background(), userID)

	require.NoError(t, err)
	assert.Empty(t, names)
}
