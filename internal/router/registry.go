package router

import "github.com/gin-gonic/gin"

// Module is a feature that mounts its routes on the API group.
type Module interface {
	Register(rg *gin.RouterGroup)
}

// Registry collects modules and mounts them together under one prefix.
type Registry struct {
	engine  *gin.Engine
	prefix  string
	shared  []gin.HandlerFunc
	modules []Module
}

// NewRegistry mounts under prefix; "" mounts at the root.
func NewRegistry(engine *gin.Engine, prefix string) *Registry {
	return &Registry{engine: engine, prefix: prefix}
}

// Use adds middleware shared by every module route.
func (r *Registry) Use(mw ...gin.HandlerFunc) *Registry {
	r.shared = append(r.shared, mw...)
	return r
}

func (r *Registry) Add(mods ...Module) *Registry {
	r.modules = append(r.modules, mods...)
	return r
}

// RegisterAll mounts every module in the order added and returns the API group.
func (r *Registry) RegisterAll() *gin.RouterGroup {
	api := r.engine.Group(r.prefix, r.shared...)
	for _, m := range r.modules {
		m.Register(api)
	}
	return api
}
