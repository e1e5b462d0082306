package database

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/bookstore/internal/entities"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewDatabase_MigratesSchema(t *testing.T) {
	db := setupTestDB(t)

	for _, table := range []string{"users", "books", "reviews", "book_stats"} {
		assert.True(t, db.DB.Migrator().HasTable(table), "missing table %s", table)
	}
	assert.True(t, db.DB.Migrator().HasIndex(&entities.Book{}, "idx_books_title_author"))
}

func TestNewDatabase_ForeignKeysOn(t *testing.T) {
	db := setupTestDB(t)

	var enabled int
	require.NoError(t, db.DB.Raw("PRAGMA foreign_keys").Scan(&enabled).Error)
	assert.Equal(t, 1, enabled)
}

func TestDatabase_Ping(t *testing.T) {
	db := setupTestDB(t)

	assert.NoError(t, db.Ping(context.Background()))

	require.NoError(t, db.Close())
	assert.Error(t, db.Ping(context.Background()))
}

func TestGormLogger_SkipsMissingRecords(t *testing.T) {
	db := setupTestDB(t)

	var buf bytes.Buffer
	quiet := db.DB.Session(&gorm.Session{Logger: newGormLogger(&buf)})

	err := quiet.First(&entities.Book{}, 4242).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	var n int
	err = quiet.Raw("SELECT count(*) FROM no_such_table").Scan(&n).Error
	require.Error(t, err)
	assert.Contains(t, buf.String(), "no_such_table")
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "./app.db?"+sqlitePragmas, dsn("./app.db"))
	assert.Equal(t, "file:app.db?cache=shared&"+sqlitePragmas, dsn("file:app.db?cache=shared"))
}

func TestErrorClassification(t *testing.T) {
	db := setupTestDB(t)

	user := entities.User{Username: "a", Email: "dup@example.com", PasswordHash: "x"}
	require.NoError(t, db.DB.Create(&user).Error)

	err := db.DB.Create(&entities.User{Username: "b", Email: "dup@example.com", PasswordHash: "x"}).Error
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsForeignKeyViolation(err))

	err = db.DB.Omit("User", "Book").Create(&entities.Review{Rating: 3, Text: "x", UserID: user.ID, BookID: 99}).Error
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))
	assert.False(t, IsUniqueViolation(err))
}

func TestNotFound(t *testing.T) {
	assert.Equal(t, ErrNotFound, NotFound(gorm.ErrRecordNotFound))

	other := errors.New("boom")
	assert.Equal(t, other, NotFound(other))
	assert.NoError(t, NotFound(nil))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("rating", "must be between 1 and 5")

	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "invalid rating: must be between 1 and 5", err.Error())

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "rating", vErr.Field)
}
