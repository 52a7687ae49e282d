package routes

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/triangletodd/flasktasks/app/controllers"
	"github.com/triangletodd/flasktasks/app/views"
)

// RegisterRoutes sets up all routes for the application.
func RegisterRoutes(router *mux.Router, taskController *controllers.TaskController, logger *zap.Logger) {
	router.Use(requestLogger(logger))

	router.HandleFunc("/", taskController.Index).Methods(http.MethodGet)
	router.HandleFunc("/add", taskController.Add).Methods(http.MethodPost)
	router.HandleFunc("/toggle/{taskID}", taskController.Toggle).Methods(http.MethodGet)
	router.HandleFunc("/toggle_with_children/{taskID}", taskController.ToggleWithChildren).Methods(http.MethodGet)
	router.HandleFunc("/edit/{taskID}", taskController.Edit).Methods(http.MethodPost)
	router.HandleFunc("/delete/{taskID}", taskController.Delete).Methods(http.MethodGet)
	router.HandleFunc("/about", taskController.About).Methods(http.MethodGet)
	router.HandleFunc("/healthz", taskController.Health).Methods(http.MethodGet)
	router.HandleFunc("/export", taskController.Export).Methods(http.MethodGet)
	router.PathPrefix("/static/").Handler(views.StaticHandler()).Methods(http.MethodGet)
}

// statusRecorder captures the response code for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote", r.RemoteAddr),
			)
		})
	}
}
