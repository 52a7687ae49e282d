package views

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/triangletodd/flasktasks/app/models"
)

type testPage struct {
	Title   string
	Flashes []Flash
	Tasks   []models.TaskView
	Stats   models.Stats
}

func TestRenderIndex(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.Render(&buf, "index.html", testPage{Title: "FlaskTasks"})
	require.NoError(t, err)

	body := buf.String()
	assert.Contains(t, body, "<title>FlaskTasks</title>")
	assert.Contains(t, body, "No tasks yet!")
}

func TestRenderIndexWithTasks(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	parentID := "p1"
	tasks := []models.TaskView{
		{Task: models.Task{ID: "p1", Text: "parent"}, ChildCount: 1},
		{Task: models.Task{ID: "c1", Text: "child", ParentID: &parentID}, ParentText: "parent"},
	}

	var buf bytes.Buffer
	err = r.Render(&buf, "index.html", testPage{
		Title: "FlaskTasks",
		Tasks: tasks,
		Stats: models.StatsFor(tasks),
	})
	require.NoError(t, err)

	body := buf.String()
	assert.Contains(t, body, "parent-todo")
	assert.Contains(t, body, "nested-todo")
	assert.Contains(t, body, "1 subtask")
	assert.Contains(t, body, "Subtask of parent")
}

func TestRenderAbout(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.Render(&buf, "about.html", testPage{Title: "About - FlaskTasks"})
	require.NoError(t, err)

	body := buf.String()
	assert.Contains(t, body, "<title>About - FlaskTasks</title>")
	assert.Contains(t, body, "Back to Tasks")
}

func TestRenderFlashes(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	var buf bytes.Buffer
	err = r.Render(&buf, "index.html", testPage{
		Title:   "FlaskTasks",
		Flashes: []Flash{{Category: "success", Message: "Task added successfully!"}},
	})
	require.NoError(t, err)

	body := buf.String()
	assert.Contains(t, body, "alert-success")
	assert.Contains(t, body, "Task added successfully!")
}

func TestAlertClass(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{"success", "alert-success"},
		{"error", "alert-danger"},
		{"info", "alert-info"},
		{"anything else", "alert-secondary"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Flash{Category: tt.category}.AlertClass())
	}
}

func TestStaticHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/static/css/style.css", nil)
	rec := httptest.NewRecorder()

	StaticHandler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "todo-item")
}
