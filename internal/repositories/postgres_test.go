package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/microblog/internal/logger"
	"github.com/sbilibin2017/microblog/internal/migrations"
	"github.com/sbilibin2017/microblog/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// --- Setup Postgres ---
func setupPostgres(t *testing.T) *sqlx.DB {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	logger.Initialize("debug")
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_PASSWORD": "secret", "POSTGRES_DB": "testdb", "POSTGRES_USER": "postgres"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:secret@%s:%s/testdb?sslmode=disable", host, port.Port())
	db, err := sqlx.Connect("pgx", dsn)
	require.NoError(t, err)

	require.NoError(t, migrations.Up(ctx, db.DB))

	t.Cleanup(func() {
		db.Close()
		container.Terminate(ctx)
	})
	return db
}

// --- Helper ---
func createUser(t *testing.T, repo *UserWriteRepository, name, email string) *models.UserDB {
	t.Helper()
	user := &models.UserDB{ID: uuid.New(), Name: name, Email: email, Salt: "salt", EncryptedPassword: "hash"}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestPostgresRepositories(t *testing.T) {
	db := setupPostgres(t)
	ctx := context.Background()

	users := NewUserWriteRepository(db, nil)
	userReader := NewUserReadRepository(db, nil)
	posts := NewMicropostWriteRepository(db, nil)
	postReader := NewMicropostReadRepository(db, nil)
	rels := NewRelationshipRepository(db, nil)

	alice := createUser(t, users, "Alice", "alice@example.com")
	bob := createUser(t, users, "Bob", "bob@example.com")
	carol := createUser(t, users, "Carol", "carol@example.com")

	t.Run("email is unique regardless of case", func(t *testing.T) {
		err := users.Create(ctx, &models.UserDB{ID: uuid.New(), Name: "Dup", Email: "ALICE@example.com", Salt: "s", EncryptedPassword: "h"})
		assert.ErrorIs(t, err, ErrConflict)

		found, err := userReader.GetByEmail(ctx, "Alice@Example.COM")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, found.ID)
	})

	t.Run("update to a taken email conflicts", func(t *testing.T) {
		changed := *bob
		changed.Email = "carol@example.com"
		assert.ErrorIs(t, users.Update(ctx, &changed), ErrConflict)
	})

	t.Run("follow edges", func(t *testing.T) {
		require.NoError(t, rels.Create(ctx, alice.ID, bob.ID))
		assert.ErrorIs(t, rels.Create(ctx, alice.ID, bob.ID), ErrConflict)
		assert.ErrorIs(t, rels.Create(ctx, alice.ID, uuid.New()), ErrNotFound)

		ok, err := rels.Exists(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = rels.Exists(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		following, err := userReader.ListFollowing(ctx, alice.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, following, 1)
		assert.Equal(t, bob.ID, following[0].ID)

		n, err := userReader.CountFollowers(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("feed holds followed users' posts newest first", func(t *testing.T) {
		first := &models.MicropostDB{ID: uuid.New(), UserID: bob.ID, Content: "first"}
		require.NoError(t, posts.Create(ctx, first))
		time.Sleep(10 * time.Millisecond)
		second := &models.MicropostDB{ID: uuid.New(), UserID: bob.ID, Content: "second"}
		require.NoError(t, posts.Create(ctx, second))
		require.NoError(t, posts.Create(ctx, &models.MicropostDB{ID: uuid.New(), UserID: carol.ID, Content: "not followed"}))
		require.NoError(t, posts.Create(ctx, &models.MicropostDB{ID: uuid.New(), UserID: alice.ID, Content: "own"}))

		feed, err := postReader.Feed(ctx, alice.ID, 10, 0)
		require.NoError(t, err)
		require.Len(t, feed, 2)
		assert.Equal(t, "second", feed[0].Content)
		assert.Equal(t, "first", feed[1].Content)
		assert.Equal(t, "Bob", feed[0].AuthorName)

		n, err := postReader.CountFeed(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		assert.ErrorIs(t, posts.DeleteOwned(ctx, first.ID, alice.ID), ErrNotFound)
		require.NoError(t, posts.DeleteOwned(ctx, first.ID, bob.ID))

		require.NoError(t, rels.Delete(ctx, alice.ID, bob.ID))
		assert.ErrorIs(t, rels.Delete(ctx, alice.ID, bob.ID), ErrNotFound)

		feed, err = postReader.Feed(ctx, alice.ID, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, feed)
	})

	t.Run("deleting a user removes its posts and edges", func(t *testing.T) {
		require.NoError(t, rels.Create(ctx, alice.ID, carol.ID))
		require.NoError(t, rels.Create(ctx, carol.ID, bob.ID))

		require.NoError(t, users.Delete(ctx, carol.ID))
		assert.ErrorIs(t, users.Delete(ctx, carol.ID), ErrNotFound)

		_, err := userReader.GetByID(ctx, carol.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		n, err := postReader.CountByUser(ctx, carol.ID)
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = userReader.CountFollowing(ctx, alice.ID)
		require.NoError(t, err)
		assert.Zero(t, n)

		n, err = userReader.CountFollowers(ctx, bob.ID)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("request transaction is used when present", func(t *testing.T) {
		tx, err := db.Beginx()
		require.NoError(t, err)

		txUsers := NewUserWriteRepository(db, func(context.Context) *sqlx.Tx { return tx })
		dave := &models.UserDB{ID: uuid.New(), Name: "Dave", Email: "dave@example.com", Salt: "s", EncryptedPassword: "h"}
		require.NoError(t, txUsers.Create(ctx, dave))
		require.NoError(t, tx.Rollback())

		_, err = userReader.GetByID(ctx, dave.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("following an unknown user leaves the transaction usable", func(t *testing.T) {
		tx, err := db.Beginx()
		require.NoError(t, err)

		txRels := NewRelationshipRepository(db, func(context.Context) *sqlx.Tx { return tx })
		assert.ErrorIs(t, txRels.Create(ctx, alice.ID, uuid.New()), ErrNotFound)
		require.NoError(t, txRels.Create(ctx, bob.ID, alice.ID))
		assert.ErrorIs(t, txRels.Create(ctx, bob.ID, alice.ID), ErrConflict)
		require.NoError(t, tx.Commit())

		ok, err := rels.Exists(ctx, bob.ID, alice.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, rels.Delete(ctx, bob.ID, alice.ID))
	})

	total, err := userReader.Count(ctx)
	require.NoError(t, err)
	list, err := userReader.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, total)
	assert.Equal(t, alice.ID, list[0].ID)
}
