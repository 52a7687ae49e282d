package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/triangletodd/flasktasks/app/export"
	"github.com/triangletodd/flasktasks/app/models"
	"github.com/triangletodd/flasktasks/app/services"
	"github.com/triangletodd/flasktasks/app/views"
)

// sessionName is the cookie that carries flash messages between requests.
const sessionName = "flasktasks"

// TaskController handles HTTP requests for tasks.
type TaskController struct {
	Service  *services.TaskService
	Renderer *views.Renderer
	Exporter *export.Exporter
	store    sessions.Store
	logger   *zap.Logger
}

// NewTaskController creates a new TaskController.
func NewTaskController(service *services.TaskService, renderer *views.Renderer, exporter *export.Exporter, store sessions.Store, logger *zap.Logger) *TaskController {
	return &TaskController{
		Service:  service,
		Renderer: renderer,
		Exporter: exporter,
		store:    store,
		logger:   logger,
	}
}

// pageData is what every template render receives.
type pageData struct {
	Title   string
	Flashes []views.Flash
	Tasks   []models.TaskView
	Stats   models.Stats
}

// flash queues a one-shot message that the next page render picks up.
func (c *TaskController) flash(w http.ResponseWriter, r *http.Request, category, message string) {
	session, _ := c.store.Get(r, sessionName)
	session.AddFlash(views.Flash{Category: category, Message: message})
	if err := session.Save(r, w); err != nil {
		c.logger.Warn("saving session", zap.Error(err))
	}
}

// popFlashes drains the pending flash messages for this session.
func (c *TaskController) popFlashes(w http.ResponseWriter, r *http.Request) []views.Flash {
	session, _ := c.store.Get(r, sessionName)
	raw := session.Flashes()
	if len(raw) > 0 {
		if err := session.Save(r, w); err != nil {
			c.logger.Warn("saving session", zap.Error(err))
		}
	}
	flashes := make([]views.Flash, 0, len(raw))
	for _, v := range raw {
		if f, ok := v.(views.Flash); ok {
			flashes = append(flashes, f)
		}
	}
	return flashes
}

func (c *TaskController) render(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Renderer.Render(w, name, data); err != nil {
		c.logger.Error("rendering template", zap.String("template", name), zap.Error(err))
	}
}

// Index handles GET /.
func (c *TaskController) Index(w http.ResponseWriter, r *http.Request) {
	tasks, err := c.Service.GetTasks(r.Context())
	if err != nil {
		c.logger.Error("listing tasks", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	c.render(w, "index.html", pageData{
		Title:   "FlaskTasks",
		Flashes: c.popFlashes(w, r),
		Tasks:   tasks,
		Stats:   models.StatsFor(tasks),
	})
}

// Add handles POST /add. An optional parent_id field nests the new task
// under an existing one.
func (c *TaskController) Add(w http.ResponseWriter, r *http.Request) {
	var parentID *string
	if p := r.FormValue("parent_id"); p != "" {
		parentID = &p
	}

	_, err := c.Service.CreateTask(r.Context(), r.FormValue("task"), parentID)
	switch {
	case errors.Is(err, services.ErrEmptyText):
		c.flash(w, r, "error", "Please enter a task!")
	case err != nil:
		c.logger.Error("creating task", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	default:
		c.flash(w, r, "success", "Task added successfully!")
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// Toggle handles GET /toggle/{taskID}.
func (c *TaskController) Toggle(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]
	if err := c.Service.ToggleTask(r.Context(), taskID); err != nil {
		c.logger.Error("toggling task", zap.String("task_id", taskID), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// ToggleWithChildren handles GET /toggle_with_children/{taskID}. The parent
// and all of its subtasks end up in the same state.
func (c *TaskController) ToggleWithChildren(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]
	if err := c.Service.ToggleTaskWithChildren(r.Context(), taskID); err != nil {
		c.logger.Error("toggling task with children", zap.String("task_id", taskID), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// Edit handles POST /edit/{taskID}. A blank text leaves the task unchanged
// and redirects without a flash.
func (c *TaskController) Edit(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]
	err := c.Service.EditTask(r.Context(), taskID, r.FormValue("task"))
	switch {
	case errors.Is(err, services.ErrEmptyText):
	case err != nil:
		c.logger.Error("editing task", zap.String("task_id", taskID), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	default:
		c.flash(w, r, "success", "Task updated!")
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// Delete handles GET /delete/{taskID}. Subtasks of the deleted task go
// with it.
func (c *TaskController) Delete(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["taskID"]
	if err := c.Service.DeleteTask(r.Context(), taskID); err != nil {
		c.logger.Error("deleting task", zap.String("task_id", taskID), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	c.flash(w, r, "info", "Task deleted!")
	http.Redirect(w, r, "/", http.StatusFound)
}

// About handles GET /about.
func (c *TaskController) About(w http.ResponseWriter, r *http.Request) {
	c.render(w, "about.html", pageData{
		Title:   "About - FlaskTasks",
		Flashes: c.popFlashes(w, r),
	})
}

// Health handles GET /healthz.
func (c *TaskController) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// Export handles GET /export?format=json|csv|pdf. The format defaults
// to json.
func (c *TaskController) Export(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "json"
	}

	var contentType, filename string
	switch format {
	case "json":
		contentType, filename = "application/json", "tasks.json"
	case "csv":
		contentType, filename = "text/csv", "tasks.csv"
	case "pdf":
		contentType, filename = "application/pdf", "tasks.pdf"
	default:
		http.Error(w, "unsupported export format", http.StatusBadRequest)
		return
	}

	data, err := c.Exporter.Export(r.Context(), format)
	if err != nil {
		c.logger.Error("exporting tasks", zap.String("format", format), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Write(data)
}
