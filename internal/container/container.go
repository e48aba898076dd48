package container

import (
	"context"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/config"
	"github.com/oksasatya/go-task-manager/internal/application"
	"github.com/oksasatya/go-task-manager/internal/domain/repository"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
	"github.com/oksasatya/go-task-manager/pkg/mailer"
)

// Container carries the components constructed at startup.
// Router modules are wired from it; nil clients mean "not configured".
type Container struct {
	Config *config.Config
	Logger *logrus.Logger

	Users repository.UserRepository
	Tasks repository.TaskRepository

	JWT      *helpers.JWTManager
	TokenSvc *application.TokenService
	UserSvc  *application.UserService
	TaskSvc  *application.TaskService
	Redis    *redis.Client

	closeFuncs []func(context.Context)
}

// Options holds the optional side channels. Leave a field nil to disable it.
type Options struct {
	Notifier application.Notifier
	Mirror   application.AvatarMirror
	Index    application.TaskIndex
	Redis    *redis.Client
}

// New builds the services over the chosen store.
func New(cfg *config.Config, logger *logrus.Logger, users repository.UserRepository, tasks repository.TaskRepository, opts Options) *Container {
	jwt := helpers.NewJWTManager(cfg.JWTSecret)
	tokens := application.NewTokenService(users, jwt)

	notifier := opts.Notifier
	if notifier == nil {
		notifier = mailer.NewLogNotifier(logger)
	}
	userSvc := application.NewUserService(users, tasks, tokens, notifier, logger)
	userSvc.Mirror = opts.Mirror
	userSvc.Index = opts.Index

	taskSvc := application.NewTaskService(tasks, logger)
	taskSvc.Index = opts.Index

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Users:    users,
		Tasks:    tasks,
		JWT:      jwt,
		TokenSvc: tokens,
		UserSvc:  userSvc,
		TaskSvc:  taskSvc,
		Redis:    opts.Redis,
	}
}

// OnClose registers a teardown step; Close runs them in reverse order.
func (c *Container) OnClose(fn func(ctx context.Context)) {
	c.closeFuncs = append(c.closeFuncs, fn)
}

func (c *Container) Close(ctx context.Context) {
	for i := len(c.closeFuncs) - 1; i >= 0; i-- {
		c.closeFuncs[i](ctx)
	}
	c.closeFuncs = nil
}
