package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"storefront/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRepository_FindByNameIsCaseInsensitive(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCategoryRepository(db)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE LOWER(name) = LOWER($1)`)).
		WithArgs("AUDIO").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at"}).
			AddRow(id.String(), "audio", "Headphones and speakers", now))

	category, err := repo.FindByName(context.Background(), "AUDIO")
	require.NoError(t, err)
	assert.Equal(t, id, category.ID)
	assert.Equal(t, "audio", category.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_Errors(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCategoryRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM categories WHERE id = $1`)).
		WillReturnError(sql.ErrNoRows)
	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO categories`)).
		WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: "categories_name_key"})
	err = repo.Create(context.Background(), &domain.Category{ID: uuid.New(), Name: "audio"})
	assert.ErrorIs(t, err, ErrCategoryAlreadyExists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_ListKeepsOrder(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCategoryRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM categories ORDER BY name ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "created_at"}).
			AddRow(uuid.NewString(), "accesorios", "", now).
			AddRow(uuid.NewString(), "audio", "", now))

	categories, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "accesorios", categories[0].Name)
	assert.Equal(t, "audio", categories[1].Name)
}

func TestRefreshTokenRepository_Revoke(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRefreshTokenRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`)).
		WithArgs("live").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Revoke(context.Background(), "live"))

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE refresh_tokens SET revoked = TRUE WHERE token = $1`)).
		WithArgs("unknown").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Revoke(context.Background(), "unknown"), ErrRefreshTokenNotFound)

	userID := uuid.New()
	mock.ExpectExec(regexp.QuoteMeta(`WHERE user_id = $1 AND revoked = FALSE`)).
		WithArgs(userID).
		WillReturnResult(sqlmock.NewResult(0, 3))
	n, err := repo.RevokeAllForUser(context.Background(), userID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_FindByTokenRejectsRevoked(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRefreshTokenRepository(db)
	columns := []string{"id", "user_id", "token", "expires_at", "created_at", "revoked"}
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM refresh_tokens WHERE token = $1`)).
		WithArgs("old").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(uuid.NewString(), uuid.NewString(), "old", now.Add(time.Hour), now, true))
	_, err := repo.FindByToken(context.Background(), "old")
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM refresh_tokens WHERE token = $1`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.FindByToken(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
}
