//go:build integration

package persistence

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/dvd/backend/internal/domain/qrlogin"
	"github.com/dvd/backend/internal/infrastructure/migration"
	"github.com/dvd/backend/migrations"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newPostgresDB starts a disposable PostgreSQL container and applies the
// embedded migrations to it
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("dvd_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	sqlDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	m, err := migration.NewFromFS(sqlDB, migrations.FS, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())

	db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)
	return db
}

func TestPostgres_PersistLogin(t *testing.T) {
	db := newPostgresDB(t)
	repo := NewGormAccountRepository(db)
	ctx := context.Background()

	account, err := qrlogin.NewCrawlAccount(1, 2, "pg@example.com", "", 3)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, account))

	t.Run("commits cookies, status and stores together", func(t *testing.T) {
		cookies := qrlogin.NewCookies(map[string]string{"sessionid": "pg"})
		require.NoError(t, repo.PersistLogin(ctx, account.ID, cookies, qrlogin.StatusNormal, []string{"Shop 1", "Shop 2"}))

		found, err := repo.FindByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, qrlogin.StatusNormal, found.Status)
		assert.ElementsMatch(t, []string{"Shop 1", "Shop 2"}, found.StoreNames())
	})

	t.Run("rolls back when a store row is rejected", func(t *testing.T) {
		tooLong := strings.Repeat("店", 300)
		err := repo.PersistLogin(ctx, account.ID,
			qrlogin.NewCookies(map[string]string{"sessionid": "lost"}), qrlogin.StatusAbnormal, []string{"Shop 3", tooLong})
		require.Error(t, err)

		found, err := repo.FindByID(ctx, account.ID)
		require.NoError(t, err)
		assert.Equal(t, qrlogin.StatusNormal, found.Status)
		v, _ := found.Cookies.Get("sessionid")
		assert.Equal(t, "pg", v)
		assert.ElementsMatch(t, []string{"Shop 1", "Shop 2"}, found.StoreNames())
	})

	t.Run("deleting an account cascades to its stores", func(t *testing.T) {
		require.NoError(t, repo.DeleteByIDs(ctx, []int64{account.ID}))

		var n int64
		require.NoError(t, db.Table("dvd_account_store_relation").Where("dvd_account_id = ?", account.ID).Count(&n).Error)
		assert.Zero(t, n)
	})
}
