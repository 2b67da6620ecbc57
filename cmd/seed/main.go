package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/headless-pm/taskflow/internal/database"
	"github.com/headless-pm/taskflow/internal/models"
	"github.com/headless-pm/taskflow/internal/service"
	"github.com/headless-pm/taskflow/internal/storage"
	"github.com/headless-pm/taskflow/pkg/config"
)

// seed creates the first administrator and, with -demo, a small sample
// project with a client, a project manager, an employee and a few tasks.
func main() {
	var (
		configPath string
		username   string
		email      string
		demo       bool
	)
	flag.StringVar(&configPath, "config", "", "Path to optional config file")
	flag.StringVar(&username, "username", "admin", "Administrator username")
	flag.StringVar(&email, "email", "admin@localhost", "Administrator email")
	flag.BoolVar(&demo, "demo", false, "Also create sample users, a project and tasks")
	flag.Parse()

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("ADMIN_PASSWORD must be set")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	users := service.NewUserService(db)
	admin, err := users.Register(service.UserInput{
		Username:  username,
		Email:     email,
		Password:  password,
		FirstName: "System",
		LastName:  "Administrator",
		Role:      models.RoleAdmin,
	})
	if err != nil {
		log.Fatalf("Failed to create administrator: %v", err)
	}
	log.Printf("Administrator %s created (id %d)", admin.Username, admin.ID)

	if !demo {
		return
	}
	if err := seedDemo(db, cfg, users, admin, password); err != nil {
		log.Fatalf("Failed to create demo data: %v", err)
	}
}

func seedDemo(db *database.Database, cfg *config.Config, users *service.UserService, admin *models.User, password string) error {
	created := map[models.Role]*models.User{}
	for _, u := range []service.UserInput{
		{Username: "client", Email: "client@localhost", FirstName: "Casey", LastName: "Client", Role: models.RoleClient},
		{Username: "manager", Email: "manager@localhost", FirstName: "Morgan", LastName: "Manager", Role: models.RoleProjectManager},
		{Username: "employee", Email: "employee@localhost", FirstName: "Emery", LastName: "Employee", Role: models.RoleEmployee},
	} {
		u.Password = password
		user, err := users.Create(admin, u)
		if err != nil {
			return err
		}
		created[u.Role] = user
	}

	fileStorage, err := storage.NewFileStorage(cfg.Storage.UploadDir)
	if err != nil {
		return err
	}
	notifier := service.NewNotifier(nil)
	projects := service.NewProjectService(db, notifier)
	tasks := service.NewTaskService(db, fileStorage, notifier, models.TaskStatus(cfg.Workflow.ReviewStatus))

	start := time.Now().Truncate(24 * time.Hour)
	end := start.AddDate(0, 3, 0)
	project, err := projects.Create(admin, service.ProjectInput{
		Name:             "Website Redesign",
		Description:      "Sample project",
		ClientID:         created[models.RoleClient].ID,
		ProjectManagerID: &created[models.RoleProjectManager].ID,
		StartDate:        start,
		EndDate:          &end,
	})
	if err != nil {
		return err
	}

	titles := []string{"Gather requirements", "Design mockups", "Build pages", "Launch"}
	for i, title := range titles {
		_, err := tasks.Create(created[models.RoleProjectManager], service.TaskInput{
			ProjectID:   project.ID,
			Title:       title,
			StartDate:   start.AddDate(0, 0, i*7),
			DueDate:     start.AddDate(0, 0, i*7+6),
			AssigneeIDs: []uint{created[models.RoleEmployee].ID},
		})
		if err != nil {
			return err
		}
	}
	log.Printf("Demo project %q created with %d tasks", project.Name, len(titles))
	return nil
}
