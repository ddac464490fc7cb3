// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/amrsaid/movie-catalog-api/internal/config"
	"github.com/amrsaid/movie-catalog-api/internal/handler"
	"github.com/amrsaid/movie-catalog-api/internal/middleware"
	"github.com/amrsaid/movie-catalog-api/internal/utils"
)

// RegisterRoutes registers routes that require no authentication: the
// health check and the static poster files.
func RegisterRoutes(e *echo.Echo, posterDir string) {
	e.GET("/healthz", handler.Health)
	// Uploaded poster images are public; movie rows reference them by
	// "/posters/<name>" paths.
	e.Static("/posters", posterDir)
}

// RegisterAuth registers the auth endpoints under /api/auth.  Register and
// login are anonymous; logout requires a valid bearer token so the session
// to invalidate is known.  The whole group is rate limited per caller.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, tokens utils.TokenSettings, rl config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/api/auth")
	g.Use(middleware.NewRateLimit(rl, rdb))
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/logout", a.Logout, middleware.JWTAuth(tokens))

	me := e.Group("/api")
	me.Use(middleware.JWTAuth(tokens))
	me.GET("/me", a.Me)
}

// RegisterMovies registers the movie endpoints under /api/movies.  Every
// route requires a valid token; reads accept Admin or Reader while
// mutations are Admin only.  Read responses are cached in Redis.
func RegisterMovies(e *echo.Echo, m *handler.MovieHandler, tokens utils.TokenSettings, cache config.CacheConfig, rdb *redis.Client) {
	reads := e.Group("/api/movies")
	reads.Use(middleware.JWTAuth(tokens))
	reads.Use(middleware.RequireRole("Admin", "Reader"))
	reads.Use(middleware.NewRedisCache(cache, rdb))
	reads.GET("/all", m.GetAll)
	reads.GET("/search", m.Search)
	reads.GET("/bycategory", m.GetByCategory)
	reads.GET("/categories", m.GetCategories)
	reads.GET("/latest", m.GetLatest)
	reads.GET("/count", m.Count)
	reads.GET("/date-range", m.GetByDateRange)
	reads.GET("/:id", m.GetByID)

	admin := e.Group("/api/movies")
	admin.Use(middleware.JWTAuth(tokens))
	admin.Use(middleware.RequireRole("Admin"))
	admin.POST("/create", m.Create)
	admin.PUT("/update/:id", m.Update)
	admin.DELETE("/delete/:id", m.Delete)
	admin.POST("/delete-bulk", m.BulkDelete)
	admin.POST("/suggest-category", m.SuggestCategoryHandler)
}
