package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triangletodd/flasktasks/app/services"
	"github.com/triangletodd/flasktasks/app/storage"
)

func newTestExporter(t *testing.T) (*Exporter, *services.TaskService) {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "todos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	service := services.NewTaskService(db)
	return NewExporter(service), service
}

func seedTasks(t *testing.T, service *services.TaskService) {
	t.Helper()
	ctx := context.Background()

	parent, err := service.CreateTask(ctx, "parent", nil)
	require.NoError(t, err)
	_, err = service.CreateTask(ctx, "child", &parent.ID)
	require.NoError(t, err)
	done, err := service.CreateTask(ctx, "done", nil)
	require.NoError(t, err)
	require.NoError(t, service.ToggleTask(ctx, done.ID))
}

func TestExportJSON(t *testing.T) {
	e, service := newTestExporter(t)
	seedTasks(t, service)

	data, err := e.Export(context.Background(), "json")
	require.NoError(t, err)

	var tasks []map[string]any
	require.NoError(t, json.Unmarshal(data, &tasks))
	require.Len(t, tasks, 3)

	for _, task := range tasks {
		assert.Contains(t, task, "id")
		assert.Contains(t, task, "task")
		assert.Contains(t, task, "completed")
		assert.Contains(t, task, "parent_id")
		assert.Contains(t, task, "child_count")
	}

	byText := map[string]map[string]any{}
	for _, task := range tasks {
		byText[task["task"].(string)] = task
	}
	assert.Nil(t, byText["parent"]["parent_id"])
	assert.NotNil(t, byText["child"]["parent_id"])
	assert.EqualValues(t, 1, byText["parent"]["child_count"])
	assert.Equal(t, true, byText["done"]["completed"])
}

func TestExportCSV(t *testing.T) {
	e, service := newTestExporter(t)
	seedTasks(t, service)

	data, err := e.Export(context.Background(), "csv")
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t,
		[]string{"id", "task", "completed", "parent_id", "child_count", "created_at", "updated_at"},
		records[0])

	var completed []string
	for _, rec := range records[1:] {
		completed = append(completed, rec[2])
	}
	assert.ElementsMatch(t, []string{"false", "false", "true"}, completed)
}

func TestExportPDF(t *testing.T) {
	e, service := newTestExporter(t)
	seedTasks(t, service)

	data, err := e.Export(context.Background(), "pdf")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.Greater(t, len(data), 500)
}

func TestExportKeepsListOrder(t *testing.T) {
	e, service := newTestExporter(t)
	ctx := context.Background()

	parent, err := service.CreateTask(ctx, "parent", nil)
	require.NoError(t, err)
	_, err = service.CreateTask(ctx, "child", &parent.ID)
	require.NoError(t, err)

	data, err := e.Export(ctx, "json")
	require.NoError(t, err)

	var tasks []map[string]any
	require.NoError(t, json.Unmarshal(data, &tasks))
	require.Len(t, tasks, 2)
	assert.Equal(t, "parent", tasks[0]["task"])
	assert.Equal(t, "child", tasks[1]["task"])
}

func TestExportUnknownFormat(t *testing.T) {
	e, _ := newTestExporter(t)

	_, err := e.Export(context.Background(), "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}
