package main // Entry point package

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/amrsaid/movie-catalog-api/internal/config"
	"github.com/amrsaid/movie-catalog-api/internal/database"
	"github.com/amrsaid/movie-catalog-api/internal/handler"
	"github.com/amrsaid/movie-catalog-api/internal/queue"
	"github.com/amrsaid/movie-catalog-api/internal/repository"
	"github.com/amrsaid/movie-catalog-api/internal/router"
	"github.com/amrsaid/movie-catalog-api/internal/service"
	"github.com/amrsaid/movie-catalog-api/internal/storage"
	"github.com/amrsaid/movie-catalog-api/internal/utils"
)

func main() {
	// A local .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer func() { _ = db.Close() }()

	posters, err := storage.NewPosterStore(cfg.PosterDir)
	if err != nil {
		log.Fatalf("poster store: %v", err)
	}

	tokens := utils.TokenSettings{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      time.Duration(cfg.AccessTTLHours) * time.Hour,
	}

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	movies := repository.NewMovieRepo(db)

	var events handler.EventPublisher
	if cfg.EventsEnabled {
		events = service.NewEventPublisher(queue.BrokerURL())
		go queue.StartCatalogConsumer()
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; response cache and rate limiting disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	authH := handler.NewAuthHandler(tokens, cfg.BcryptCost, users, sessions)
	movieH := handler.NewMovieHandler(movies, posters, events)

	router.RegisterRoutes(e, cfg.PosterDir)
	router.RegisterAuth(e, authH, tokens, config.LoadRateLimitConfig(), rdb)
	router.RegisterMovies(e, movieH, tokens, config.LoadCacheConfig(), rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
