// Package server assembles the HTTP router: global middleware, the access
// gate, the authorization policy and the route table.
package server

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/civicpulse/grievance-server/internal/auth"
	"github.com/civicpulse/grievance-server/internal/handlers"
	"github.com/civicpulse/grievance-server/internal/middleware"
	"github.com/civicpulse/grievance-server/internal/services"
	"github.com/civicpulse/grievance-server/internal/uploads"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Deps are the collaborators the router wires into handlers
type Deps struct {
	Logger         *zap.Logger
	Codec          *auth.Codec
	Policy         *auth.Policy
	PublicPrefixes []string
	AllowedOrigins []string
	StaticDir      string
	MaxUploadBytes int64
	RequestTimeout time.Duration

	Complaints  *services.ComplaintService
	Users       *services.UserService
	Departments *services.DepartmentService
	Activity    *services.ActivityLogService
	Uploads     *uploads.Store
	DB          handlers.Pinger // nil on the in-memory store
	Cache       handlers.Pinger // nil without Redis
}

// NewRouter builds the complete HTTP handler
func NewRouter(d Deps) http.Handler {
	sugar := d.Logger.Sugar()
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}

	authHandler := handlers.NewAuthHandler(d.Users, sugar)
	complaintHandler := handlers.NewComplaintHandler(d.Complaints, d.Uploads, d.MaxUploadBytes, sugar)
	adminHandler := handlers.NewAdminHandler(d.Complaints, d.Departments, d.Activity, sugar)
	departmentHandler := handlers.NewDepartmentHandler(d.Complaints, sugar)
	healthHandler := handlers.NewHealthHandler(d.DB, d.Cache, sugar)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(d.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(d.RequestTimeout))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Identity first, then the route policy
	r.Use(middleware.Authenticate(d.Codec, d.PublicPrefixes, sugar))
	r.Use(middleware.Authorize(d.Policy, sugar))

	r.Get("/health", healthHandler.Check)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	r.Route("/citizen/complaints", func(r chi.Router) {
		r.Post("/", complaintHandler.Submit)
		r.Get("/my", complaintHandler.Mine)
		r.Get("/all", complaintHandler.All)
		r.Get("/{id}", complaintHandler.Get)
		r.Get("/{id}/timeline", complaintHandler.Timeline)
		r.Post("/{id}/feedback", complaintHandler.Feedback)
		r.Put("/{id}/assign", complaintHandler.Assign)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/complaints", adminHandler.Complaints)
		r.Get("/departments", adminHandler.Departments)
		r.Put("/assign", adminHandler.Assign)
		r.Get("/activity", adminHandler.Activity)
	})

	r.Route("/department", func(r chi.Router) {
		r.Get("/complaints", departmentHandler.Complaints)
		r.Put("/resolve", departmentHandler.Resolve)
	})

	// Stored attachments
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", noListing(http.FileServer(http.Dir(d.Uploads.Dir())))))

	// Serve static files (frontend build)
	if d.StaticDir != "" {
		r.Handle("/*", frontend(d.StaticDir))
	}

	return r
}

// frontend serves the static build. Extensionless paths that name no file
// are client-side routes and get index.html.
func frontend(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clean := path.Clean("/" + r.URL.Path)
		if path.Ext(clean) == "" {
			if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(clean))); os.IsNotExist(err) {
				http.ServeFile(w, r, index)
				return
			}
		}
		files.ServeHTTP(w, r)
	})
}

// noListing answers directory requests with 404
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
