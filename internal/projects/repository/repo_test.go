package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitecraft-ai/sitecraft-backend/internal/projects/domain"
)

func newMockRepo(t *testing.T) (*ProjectRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewProjectRepository(db), mock
}

var projectCols = []string{"id", "user_id", "name", "created_at", "last_edited_at", "url"}

func TestProjectRepository_Create(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO projects`).
		WithArgs(sqlmock.AnyArg(), "user-1", "Bakery").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "created_at", "last_edited_at"}).
			AddRow("p-1", "user-1", "Bakery", now, now))

	p, err := repo.Create(context.Background(), "user-1", "Bakery")
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.ID)
	assert.Nil(t, p.URL)

	_, err = repo.Create(context.Background(), "user-1", "")
	assert.ErrorIs(t, err, domain.ErrNameRequired)

	_, err = repo.Create(context.Background(), "", "Bakery")
	assert.ErrorIs(t, err, domain.ErrUserRequired)
}

func TestProjectRepository_List(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`FROM projects`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(projectCols).
			AddRow("p-2", "user-1", "Newer", now, now, "https://newer.pages.example.com").
			AddRow("p-1", "user-1", "Older", now, now.Add(-time.Hour), nil))

	items, err := repo.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NotNil(t, items[0].URL)
	assert.Equal(t, "https://newer.pages.example.com", *items[0].URL)
	assert.Nil(t, items[1].URL)
}

func TestProjectRepository_Get(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`FROM projects`).
		WithArgs("user-1", "p-1").
		WillReturnRows(sqlmock.NewRows(append(projectCols, "content")).
			AddRow("p-1", "user-1", "Bakery", now, now, nil, "<h1>hi</h1>"))

	p, err := repo.Get(context.Background(), "user-1", "p-1")
	require.NoError(t, err)
	require.NotNil(t, p.Content)
	assert.Equal(t, "<h1>hi</h1>", *p.Content)

	mock.ExpectQuery(`FROM projects`).
		WithArgs("user-1", "missing").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), "user-1", "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mock.ExpectQuery(`FROM projects`).
		WithArgs("user-1", "not-a-uuid").
		WillReturnError(&pq.Error{Code: "22P02"})
	_, err = repo.Get(context.Background(), "user-1", "not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProjectRepository_Rename(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`UPDATE projects`).
		WithArgs("user-1", "p-1", "Renamed").
		WillReturnRows(sqlmock.NewRows(projectCols).AddRow("p-1", "user-1", "Renamed", now, now, nil))

	p, err := repo.Rename(context.Background(), "user-1", "p-1", "Renamed")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", p.Name)

	_, err = repo.Rename(context.Background(), "user-1", "p-1", "")
	assert.ErrorIs(t, err, domain.ErrNameRequired)
}

func TestProjectRepository_UpdateURL(t *testing.T) {
	repo, mock := newMockRepo(t)
	url := "https://foo.pages.example.com"

	t.Run("updates the owning row", func(t *testing.T) {
		mock.ExpectExec(`UPDATE projects`).
			WithArgs("user-1", "p-1", url).
			WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, repo.UpdateURL(context.Background(), "user-1", "p-1", url))
	})

	t.Run("no matching row is reported", func(t *testing.T) {
		mock.ExpectExec(`UPDATE projects`).
			WithArgs("user-2", "p-1", url).
			WillReturnResult(sqlmock.NewResult(0, 0))
		err := repo.UpdateURL(context.Background(), "user-2", "p-1", url)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("write error is surfaced", func(t *testing.T) {
		mock.ExpectExec(`UPDATE projects`).
			WithArgs("user-1", "p-1", url).
			WillReturnError(errors.New("connection reset"))
		err := repo.UpdateURL(context.Background(), "user-1", "p-1", url)
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestProjectRepository_UpdateContent(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`UPDATE projects`).
		WithArgs("user-1", "p-1", "<p>new</p>").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateContent(context.Background(), "user-1", "p-1", "<p>new</p>"))
}

func TestProjectRepository_Delete(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`DELETE FROM projects`).
		WithArgs("user-1", "p-1").
		WillReturnRows(sqlmock.NewRows(projectCols).
			AddRow("p-1", "user-1", "Bakery", now, now, "https://bakery.pages.example.com"))

	p, err := repo.Delete(context.Background(), "user-1", "p-1")
	require.NoError(t, err)
	require.NotNil(t, p.URL)
	assert.Equal(t, "https://bakery.pages.example.com", *p.URL)

	mock.ExpectQuery(`DELETE FROM projects`).
		WithArgs("user-1", "p-1").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.Delete(context.Background(), "user-1", "p-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
