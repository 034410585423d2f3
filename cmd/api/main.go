// @title FORESVI Tracker API
// @description API for the FORESVI habit-tracking platform
// @BasePath /api/v1
// @schemes http
package main

import (
	"log"

	"github.com/foresvi/tracker/internal/api"
	"github.com/foresvi/tracker/internal/repository"
	"github.com/foresvi/tracker/internal/service"
	"github.com/foresvi/tracker/pkg/cleanup"
	"github.com/foresvi/tracker/pkg/config"
	jwtservice "github.com/foresvi/tracker/pkg/jwt_service"
)

func init() {
	service.InitValidator()
}

func main() {
	defer cleanup.CleanUp()
	cfg := config.New()
	dbCfg := repository.PGCfg{
		Address:  cfg.GetString("POSTGRES_DB_ADDRESS"),
		Username: cfg.GetString("POSTGRES_USER"),
		Password: cfg.GetString("POSTGRES_PASSWORD"),
		DB:       cfg.GetString("POSTGRES_DB"),
	}
	habitsRepo := repository.NewHabitsRepo(&dbCfg)
	assignmentsRepo := repository.NewAssignmentsRepo(&dbCfg)
	progressRepo := repository.NewProgressRepo(&dbCfg)
	usersRepo := repository.NewUsersRepo(&dbCfg)
	groupsRepo := repository.NewGroupsRepo(&dbCfg)

	serv := api.New(&api.ServicesList{
		UserService:       service.NewUserAdminService(usersRepo, groupsRepo),
		HabitService:      service.NewHabitCatalogService(habitsRepo, assignmentsRepo),
		AssignmentService: service.NewAssignmentService(habitsRepo, assignmentsRepo),
		ProgressService:   service.NewProgressService(assignmentsRepo, progressRepo),
		DashboardService:  service.NewDashboardService(assignmentsRepo, progressRepo),
		ImporterService:   service.NewImporterService(habitsRepo),
		ReportService:     service.NewReportService(usersRepo, groupsRepo, assignmentsRepo, progressRepo),
		JwtService:        jwtservice.New(cfg.GetString("JWT_SECRET")),
	})
	err := serv.Run(cfg.GetStringDefault("API_ADDRESS", ":8080"))
	if err != nil {
		log.Println("Server error: " + err.Error())
	}
}
