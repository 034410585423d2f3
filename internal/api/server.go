package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foresvi/tracker/internal/service"
)

type Server struct {
	mx                *chi.Mux
	userService       service.UserAdminServiceI
	habitService      service.HabitCatalogServiceI
	assignmentService service.AssignmentServiceI
	progressService   service.ProgressServiceI
	dashboardService  service.DashboardServiceI
	importerService   service.ImporterServiceI
	reportService     service.ReportServiceI
	jwtService        JWTServiceI
}

type ServicesList struct {
	UserService       service.UserAdminServiceI
	HabitService      service.HabitCatalogServiceI
	AssignmentService service.AssignmentServiceI
	ProgressService   service.ProgressServiceI
	DashboardService  service.DashboardServiceI
	ImporterService   service.ImporterServiceI
	ReportService     service.ReportServiceI
	JwtService        JWTServiceI
}

func New(servicesOptions *ServicesList) *Server {
	return &Server{
		mx:                chi.NewMux(),
		userService:       servicesOptions.UserService,
		habitService:      servicesOptions.HabitService,
		assignmentService: servicesOptions.AssignmentService,
		progressService:   servicesOptions.ProgressService,
		dashboardService:  servicesOptions.DashboardService,
		importerService:   servicesOptions.ImporterService,
		reportService:     servicesOptions.ReportService,
		jwtService:        servicesOptions.JwtService,
	}
}

func (s *Server) Run(address string) error {
	s.mx.Use(s.RequestIDMiddleware, s.SettingUpLoggerMiddleware)
	s.mx.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", s.Login)
		r.Group(func(r chi.Router) {
			r.Use(s.AuthMiddleware, s.LoggerExtensionMiddleware)
			r.Get("/me", s.Me)
			r.Post("/auth/impersonate/stop", s.StopImpersonation)

			r.Get("/dashboard", s.GetDashboard)
			r.Get("/habits", s.ListCatalog)
			r.Post("/habits/private", s.CreatePrivateHabit)

			r.Post("/assignments", s.Assign)
			r.Delete("/assignments", s.Unassign)
			r.Patch("/assignments/{id}", s.Customize)

			r.Post("/progress", s.SetProgress)
			r.Post("/progress/cycle", s.CycleProgress)

			r.Get("/reports/users/{id}", s.ExportUserReport)

			r.Group(func(r chi.Router) {
				r.Use(s.RequireAdminMiddleware)
				r.Post("/auth/impersonate/{id}", s.Impersonate)

				r.Post("/habits", s.CreateHabit)
				r.Put("/habits/{id}", s.UpdateHabit)
				r.Post("/habits/{id}/archive", s.ArchiveHabit)
				r.Post("/habits/{id}/restore", s.RestoreHabit)
				r.Post("/habits/{id}/promote", s.PromoteHabit)
				r.Get("/habits/{id}/assignees", s.ListAssignees)
				r.Post("/habits/import", s.ImportHabits)

				r.Get("/users", s.ListUsers)
				r.Post("/users", s.CreateUser)
				r.Delete("/users/{id}", s.DeleteUser)
				r.Post("/users/{id}/restore", s.RestoreUser)
				r.Put("/users/{id}/group", s.SetUserGroup)

				r.Get("/groups", s.ListGroups)
				r.Post("/groups", s.CreateGroup)
				r.Delete("/groups/{id}", s.DeleteGroup)
			})
		})
	})
	return http.ListenAndServe(address, s.mx)
}
