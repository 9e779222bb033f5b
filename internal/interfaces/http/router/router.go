// Package router assembles the versioned HTTP API from declarative route groups.
package router

import (
	"github.com/gin-gonic/gin"
)

// Registrar attaches routes to the versioned API group.
type Registrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts registrars under /api/<version>.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	registrars []Registrar
}

// Option configures a Router.
type Option func(*Router)

// WithAPIVersion sets the version segment of the API prefix.
func WithAPIVersion(version string) Option {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithMiddleware adds middleware that runs only for API routes.
func WithMiddleware(middleware ...gin.HandlerFunc) Option {
	return func(r *Router) {
		r.middleware = append(r.middleware, middleware...)
	}
}

// NewRouter creates a Router serving /api/v1 unless configured otherwise.
func NewRouter(engine *gin.Engine, opts ...Option) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register queues a registrar for Setup.
func (r *Router) Register(registrar Registrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup mounts every registrar and returns the API group.
func (r *Router) Setup() *gin.RouterGroup {
	api := r.engine.Group("/api/"+r.apiVersion, r.middleware...)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
	return api
}

// Route is a single endpoint.
type Route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

// Group declares routes and nested groups sharing a prefix. Middleware
// applies to the group's routes and to every nested group.
type Group struct {
	Prefix     string
	Middleware []gin.HandlerFunc
	Routes     []Route
	Groups     []Group
}

// RegisterRoutes implements Registrar.
func (g Group) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(g.Prefix, g.Middleware...)
	for _, route := range g.Routes {
		group.Handle(route.Method, route.Path, route.Handler)
	}
	for _, child := range g.Groups {
		child.RegisterRoutes(group)
	}
}
