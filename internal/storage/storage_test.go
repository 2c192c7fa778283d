package storage

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testKey = "taskflow-all-tasks"

var base = time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newDatabaseSlot(t *testing.T) *DatabaseSlot {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})
	require.NoError(t, db.AutoMigrate(&models.Snapshot{}))
	return NewDatabaseSlot(repository.NewSnapshotRepository(db))
}

func sampleTasks() []models.Task {
	completedAt := base.Add(2 * time.Hour)
	onTime := false
	return []models.Task{
		{
			ID:        base.UnixMilli(),
			Text:      "Write report",
			Status:    models.TaskStatusActive,
			Priority:  models.PriorityImportant,
			StartTime: base,
			EndTime:   base.Add(time.Hour),
			CreatedAt: base,
		},
		{
			ID:               base.UnixMilli() + 1,
			Text:             "Call back",
			Status:           models.TaskStatusCompleted,
			Priority:         models.PriorityLessImportant,
			StartTime:        base,
			EndTime:          base.Add(time.Hour),
			CreatedAt:        base,
			CompletedAt:      &completedAt,
			IsOnTime:         &onTime,
			WasAutoCompleted: true,
		},
	}
}

type memorySlot struct {
	data     map[string][]byte
	readErr  error
	writeErr error
}

func (m *memorySlot) Read(key string) ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	data, ok := m.data[key]
	if !ok {
		return nil, ErrSlotEmpty
	}
	return data, nil
}

func (m *memorySlot) Write(key string, data []byte) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[key] = data
	return nil
}

func TestFileSlot_ReadMissing(t *testing.T) {
	slot := NewFileSlot(t.TempDir())

	_, err := slot.Read(testKey)

	assert.ErrorIs(t, err, ErrSlotEmpty)
}

func TestFileSlot_WriteAndRead(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	slot := NewFileSlot(dir)

	require.NoError(t, slot.Write(testKey, []byte(`[]`)))
	require.NoError(t, slot.Write(testKey, []byte(`[{"id":1}]`)))

	data, err := slot.Read(testKey)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileSlot_UnchangedContentNotRewritten(t *testing.T) {
	dir := t.TempDir()
	slot := NewFileSlot(dir)
	require.NoError(t, slot.Write(testKey, []byte(`[]`)))

	path := filepath.Join(dir, testKey+".json")
	old := base.Add(-24 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	require.NoError(t, slot.Write(testKey, []byte(`[]`)))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(old))
}

func TestFileSlot_RejectsPathKeys(t *testing.T) {
	slot := NewFileSlot(t.TempDir())

	for _, key := range []string{"", "../escape", "a/b", ".hidden"} {
		err := slot.Write(key, []byte(`[]`))
		assert.ErrorIs(t, err, ErrInvalidKey, key)
		_, err = slot.Read(key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestDatabaseSlot_ReadMissing(t *testing.T) {
	slot := newDatabaseSlot(t)

	_, err := slot.Read(testKey)

	assert.ErrorIs(t, err, ErrSlotEmpty)
}

func TestDatabaseSlot_WriteOverwrites(t *testing.T) {
	slot := newDatabaseSlot(t)

	require.NoError(t, slot.Write(testKey, []byte(`[{"id":1}]`)))
	require.NoError(t, slot.Write(testKey, []byte(`[]`)))

	data, err := slot.Read(testKey)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))
}

func TestAdapter_RoundTrip(t *testing.T) {
	slots := map[string]Slot{
		"file":     NewFileSlot(t.TempDir()),
		"database": newDatabaseSlot(t),
		"memory":   &memorySlot{},
	}

	for name, slot := range slots {
		t.Run(name, func(t *testing.T) {
			adapter := NewAdapter(slot, discardLogger())
			tasks := sampleTasks()

			require.NoError(t, adapter.Save(testKey, tasks))

			assert.Equal(t, tasks, adapter.Load(testKey))
		})
	}
}

func TestAdapter_SaveEmptyCollection(t *testing.T) {
	slot := &memorySlot{}
	adapter := NewAdapter(slot, discardLogger())

	require.NoError(t, adapter.Save(testKey, nil))

	assert.Equal(t, `[]`, string(slot.data[testKey]))
	assert.Empty(t, adapter.Load(testKey))
}

func TestAdapter_SerializedFieldNames(t *testing.T) {
	slot := &memorySlot{}
	adapter := NewAdapter(slot, discardLogger())

	require.NoError(t, adapter.Save(testKey, sampleTasks()[:1]))

	data := string(slot.data[testKey])
	assert.Contains(t, data, `"startTime":"2025-05-10T09:00:00Z"`)
	assert.Contains(t, data, `"completedAt":null`)
	assert.NotContains(t, data, `isOnTime`)
	assert.Contains(t, data, `"wasAutoCompleted":false`)
}

func TestAdapter_LoadEmptySlot(t *testing.T) {
	adapter := NewAdapter(&memorySlot{}, discardLogger())

	tasks := adapter.Load(testKey)

	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestAdapter_LoadReadError(t *testing.T) {
	adapter := NewAdapter(&memorySlot{readErr: errors.New("io failure")}, discardLogger())

	assert.Empty(t, adapter.Load(testKey))
}

func TestAdapter_LoadCorruptData(t *testing.T) {
	for name, data := range map[string]string{
		"garbage":   `not json at all`,
		"object":    `{"id":1}`,
		"truncated": `[{"id":1,"text":"a"`,
	} {
		t.Run(name, func(t *testing.T) {
			slot := &memorySlot{data: map[string][]byte{testKey: []byte(data)}}
			adapter := NewAdapter(slot, discardLogger())

			assert.Empty(t, adapter.Load(testKey))
		})
	}
}

func TestAdapter_LoadDropsBadRecords(t *testing.T) {
	data := `[
		{"id":1,"text":"keep","completed":false,"status":"active","priority":"important","startTime":"2025-05-10T09:00:00Z","endTime":"2025-05-10T10:00:00Z","createdAt":"2025-05-10T09:00:00Z","completedAt":null,"wasAutoCompleted":false},
		{"id":2,"text":"","status":"active","createdAt":"2025-05-10T09:00:00Z"},
		{"id":3,"text":"no outcome","status":"completed","createdAt":"2025-05-10T09:00:00Z","completedAt":null},
		{"id":"four","text":"bad id"},
		{"id":1,"text":"duplicate","status":"active","createdAt":"2025-05-10T09:00:00Z"},
		{"id":5,"text":"unknown status","status":"archived","createdAt":"2025-05-10T09:00:00Z"},
		{"id":6,"text":"legacy","completed":false,"status":"active","startTime":"2025-05-10T09:00:00Z","endTime":"2025-05-10T10:00:00Z","createdAt":"2025-05-10T09:00:00Z","completedAt":null}
	]`
	slot := &memorySlot{data: map[string][]byte{testKey: []byte(data)}}
	adapter := NewAdapter(slot, discardLogger())

	tasks := adapter.Load(testKey)

	require.Len(t, tasks, 2)
	assert.Equal(t, "keep", tasks[0].Text)
	assert.Equal(t, "legacy", tasks[1].Text)
	assert.Equal(t, models.PriorityNormal, tasks[1].Priority)
}

func TestAdapter_SaveError(t *testing.T) {
	adapter := NewAdapter(&memorySlot{writeErr: errors.New("quota exceeded")}, discardLogger())

	err := adapter.Save(testKey, sampleTasks())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestAdapter_LoadBrowserSnapshot(t *testing.T) {
	data := `[{"id":1746867600000,"text":"write report","completed":false,"status":"active","priority":"normal","startTime":"2025-05-10T09:00","endTime":"2025-05-10T11:00","createdAt":"2025-05-10T09:00:00.000Z","completedAt":null}]`
	slot := &memorySlot{data: map[string][]byte{testKey: []byte(data)}}
	adapter := NewAdapter(slot, discardLogger())

	tasks := adapter.Load(testKey)

	require.Len(t, tasks, 1)
	task := tasks[0]
	assert.Equal(t, int64(1746867600000), task.ID)
	assert.Equal(t, "write report", task.Text)
	assert.Equal(t, models.TaskStatusActive, task.Status)
	assert.True(t, time.Date(2025, 5, 10, 9, 0, 0, 0, time.Local).Equal(task.StartTime))
	assert.True(t, time.Date(2025, 5, 10, 11, 0, 0, 0, time.Local).Equal(task.EndTime))
	assert.True(t, base.Equal(task.CreatedAt))
	assert.Nil(t, task.CompletedAt)
	assert.Nil(t, task.IsOnTime)
	assert.False(t, task.WasAutoCompleted)

	// Saving what was loaded must keep the record readable.
	require.NoError(t, adapter.Save(testKey, tasks))
	reloaded := adapter.Load(testKey)
	require.Len(t, reloaded, 1)
	assert.True(t, task.EndTime.Equal(reloaded[0].EndTime))
}
