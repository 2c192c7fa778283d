package repository

import (
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSQLiteRepository(t *testing.T) SnapshotRepository {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Snapshot{}))
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return NewSnapshotRepository(db)
}

func setupMockRepository(t *testing.T) (SnapshotRepository, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewSnapshotRepository(db), mock
}

func TestSnapshotRepository_FindByKey_Missing(t *testing.T) {
	repo := setupSQLiteRepository(t)

	snapshot, err := repo.FindByKey("taskflow-all-tasks")

	assert.Nil(t, snapshot)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestSnapshotRepository_SaveAndFind(t *testing.T) {
	repo := setupSQLiteRepository(t)

	err := repo.Save(&models.Snapshot{Key: "taskflow-all-tasks", Data: `[{"id":1}]`})
	require.NoError(t, err)

	snapshot, err := repo.FindByKey("taskflow-all-tasks")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, snapshot.Data)
	assert.False(t, snapshot.UpdatedAt.IsZero())
}

func TestSnapshotRepository_SaveLargePayload(t *testing.T) {
	repo := setupSQLiteRepository(t)
	data := `["` + strings.Repeat("x", 200*1024) + `"]`

	require.NoError(t, repo.Save(&models.Snapshot{Key: "slot", Data: data}))

	snapshot, err := repo.FindByKey("slot")
	require.NoError(t, err)
	assert.Equal(t, len(data), len(snapshot.Data))
	assert.Equal(t, data, snapshot.Data)
}

func TestSnapshotRepository_SaveOverwrites(t *testing.T) {
	repo := setupSQLiteRepository(t)

	require.NoError(t, repo.Save(&models.Snapshot{Key: "slot", Data: `[{"id":1}]`}))
	require.NoError(t, repo.Save(&models.Snapshot{Key: "slot", Data: `[]`}))

	snapshot, err := repo.FindByKey("slot")
	require.NoError(t, err)
	assert.Equal(t, `[]`, snapshot.Data)
}

func TestSnapshotRepository_KeysAreIndependent(t *testing.T) {
	repo := setupSQLiteRepository(t)

	require.NoError(t, repo.Save(&models.Snapshot{Key: "a", Data: `["a"]`}))
	require.NoError(t, repo.Save(&models.Snapshot{Key: "b", Data: `["b"]`}))

	a, err := repo.FindByKey("a")
	require.NoError(t, err)
	b, err := repo.FindByKey("b")
	require.NoError(t, err)

	assert.Equal(t, `["a"]`, a.Data)
	assert.Equal(t, `["b"]`, b.Data)
}

func TestSnapshotRepository_SaveError(t *testing.T) {
	repo, mock := setupMockRepository(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `snapshots`").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.Save(&models.Snapshot{Key: "slot", Data: `[]`})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepository_FindByKeyQueryError(t *testing.T) {
	repo, mock := setupMockRepository(t)

	mock.ExpectQuery("SELECT \\* FROM `snapshots` WHERE slot_key = \\?").
		WillReturnError(errors.New("connection reset"))

	snapshot, err := repo.FindByKey("slot")

	assert.Nil(t, snapshot)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSnapshotRepository_FindByKeyScansRow(t *testing.T) {
	repo, mock := setupMockRepository(t)

	rows := sqlmock.NewRows([]string{"slot_key", "data"}).AddRow("slot", `[{"id":42}]`)
	mock.ExpectQuery("SELECT \\* FROM `snapshots` WHERE slot_key = \\?").WillReturnRows(rows)

	snapshot, err := repo.FindByKey("slot")

	require.NoError(t, err)
	assert.Equal(t, "slot", snapshot.Key)
	assert.Equal(t, `[{"id":42}]`, snapshot.Data)
	assert.NoError(t, mock.ExpectationsWereMet())
}
