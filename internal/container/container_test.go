package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-task-manager/config"
	"github.com/oksasatya/go-task-manager/internal/infrastructure/memory"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
)

func TestNew_WiresServicesWithDefaults(t *testing.T) {
	cfg := &config.Config{JWTSecret: "s3cret"}
	c := New(cfg, helpers.NewNopLogger(), memory.NewUserRepository(), memory.NewTaskRepository(), Options{})

	require.NotNil(t, c.UserSvc)
	require.NotNil(t, c.TaskSvc)
	assert.NotNil(t, c.UserSvc.Notifier, "a log-only notifier stands in when none is configured")
	assert.Nil(t, c.UserSvc.Mirror)
	assert.Nil(t, c.UserSvc.Index)
	assert.Nil(t, c.TaskSvc.Index)
	assert.Nil(t, c.Redis)

	token, err := c.JWT.Sign("u1")
	require.NoError(t, err)
	uid, err := c.TokenSvc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", uid)
}

func TestClose_RunsInReverseOrderOnce(t *testing.T) {
	c := New(&config.Config{JWTSecret: "s"}, helpers.NewNopLogger(), memory.NewUserRepository(), memory.NewTaskRepository(), Options{})
	var order []string
	c.OnClose(func(context.Context) { order = append(order, "store") })
	c.OnClose(func(context.Context) { order = append(order, "redis") })

	c.Close(context.Background())
	c.Close(context.Background())
	assert.Equal(t, []string{"redis", "store"}, order)
}
