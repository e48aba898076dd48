package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-task-manager/config"
	"github.com/oksasatya/go-task-manager/internal/application"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
	mongoinfra "github.com/oksasatya/go-task-manager/internal/infrastructure/mongodb"
	pginfra "github.com/oksasatya/go-task-manager/internal/infrastructure/postgres"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
	"github.com/oksasatya/go-task-manager/pkg/mailer"
)

// seed creates a demo account with a few tasks in the configured store.
// Migrations are expected to have run already (start the server once).
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	var (
		users repository.UserRepository
		tasks repository.TaskRepository
	)
	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := pginfra.NewPool(ctx, cfg)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()
		users, tasks = pginfra.NewUserRepository(pool), pginfra.NewTaskRepository(pool)
	case config.StoreMemory:
		log.Fatal("nothing to seed with STORE_DRIVER=memory")
	default:
		client, err := mongoinfra.NewClient(ctx, cfg.MongoURL, cfg.MongoTimeout)
		if err != nil {
			log.Fatalf("failed to connect to mongodb: %v", err)
		}
		defer func() { _ = client.Disconnect(ctx) }()
		mdb := client.Database(cfg.MongoDatabase)
		users, tasks = mongoinfra.NewUserRepository(mdb), mongoinfra.NewTaskRepository(mdb)
	}

	tokens := application.NewTokenService(users, helpers.NewJWTManager(cfg.JWTSecret))
	userSvc := application.NewUserService(users, tasks, tokens, mailer.NewLogNotifier(logger), logger)
	taskSvc := application.NewTaskService(tasks, logger)

	email := "john@example.com"
	password := "MyPass777!"
	u, token, err := userSvc.Create(ctx, application.SignupInput{Name: "John Egbert", Email: email, Password: password, Age: 13})
	if errors.Is(err, application.ErrValidation) {
		u, token, err = userSvc.Login(ctx, email, password)
	}
	if err != nil {
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s email=%s password=%s\ntoken=%s\n", u.ID, email, password, token)

	for i, d := range []string{"Clean the room", "Finish the report", "Water the plants"} {
		t, err := taskSvc.Create(ctx, u.ID, application.TaskInput{Description: d, Completed: i == 0})
		if err != nil {
			log.Fatalf("failed to seed task: %v", err)
		}
		fmt.Printf("seeded task: id=%s %q\n", t.ID, t.Description)
	}
}
