// Package stubserver is a development stand-in for the recognition service.
// It speaks the same wire contract as the production API so client commands
// and workflows can run end to end without the Python service: JWT logins,
// a toy face encoder, an HNSW-backed gallery and in-memory attendance.
package stubserver

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/Gani505-dotcom/Smart-Attendance-Verification-System/internal/config"
)

// Server is the stub recognition service.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server

	store       *Store
	gallery     *Gallery
	tokens      *tokenAuthority
	suggestions map[string][]string

	threshold    float64
	maxImageSize int64
	galleryPath  string
}

// New assembles the stub server. The admin credentials seed the first
// administrator account; further admins and students register through
// the API.
func New(cfg *config.Config, host string, port int, adminEmail, adminPassword string) (*Server, error) {
	suggestions, err := loadSuggestions()
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:      chi.NewRouter(),
		store:       NewStore(adminEmail, adminPassword),
		gallery:     NewGallery(),
		tokens:      &tokenAuthority{secret: []byte(cfg.Server.JWTSecret), ttl: cfg.Server.TokenTTL},
		suggestions: suggestions,

		threshold:    cfg.Server.Threshold,
		maxImageSize: cfg.Server.MaxImageSize,
		galleryPath:  cfg.Server.GalleryPath,
	}

	if s.galleryPath != "" {
		if _, err := os.Stat(s.galleryPath); err == nil {
			if err := s.gallery.Load(s.galleryPath); err != nil {
				return nil, fmt.Errorf("loading gallery snapshot: %w", err)
			}
			log.Printf("Loaded %d enrolled faces from %s", s.gallery.Size(), s.galleryPath)
		}
	}

	s.router.Use(chiMiddleware.RequestID)
	s.router.Use(chiMiddleware.RealIP)
	s.router.Use(chiMiddleware.Logger)
	s.router.Use(chiMiddleware.Recoverer)
	s.router.Use(chiMiddleware.Timeout(60 * time.Second))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Get("/api/health", healthCheck)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/students/login", s.studentLogin)
		r.Post("/students/register", s.registerStudent)
		r.Post("/admin/register", s.registerAdmin)
		r.Post("/admin/login", s.adminLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(roleStudent))
			r.Get("/students/profile", s.studentProfile)
			r.Post("/attendance/mark", s.markAttendance)
			r.Post("/attendance/mark-enhanced", s.markAttendanceEnhanced)
			r.Get("/attendance/today", s.todayAttendance)
			r.Get("/attendance/history", s.attendanceHistory)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(roleAdmin))
			r.Get("/admin/profile", s.adminProfile)
			r.Post("/admin/capture-face-encoding", s.captureFaceEncoding)
			r.Post("/admin/students", s.createStudent)
			r.Get("/admin/students", s.listStudents)
			r.Get("/admin/students/{id}", s.getStudent)
			r.Put("/admin/students/{id}", s.updateStudent)
			r.Delete("/admin/students/{id}", s.deleteStudent)
			r.Get("/admin/attendance-reports", s.attendanceReports)
		})
	})
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start() error {
	log.Printf("Starting stub recognition server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown stops the server and snapshots the gallery when configured.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.galleryPath != "" {
		if err := s.gallery.Save(s.galleryPath); err != nil {
			log.Printf("Warning: failed to save gallery snapshot: %v", err)
		}
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router exposes the chi router for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}
