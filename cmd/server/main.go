package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sso-service/internal/config"
	"github.com/iliyamo/sso-service/internal/database"
	"github.com/iliyamo/sso-service/internal/handler"
	"github.com/iliyamo/sso-service/internal/middleware"
	"github.com/iliyamo/sso-service/internal/queue"
	"github.com/iliyamo/sso-service/internal/repository"
	"github.com/iliyamo/sso-service/internal/router"
	"github.com/iliyamo/sso-service/internal/service/notifier"
)

func main() {
	// .env is optional; real deployments inject the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	products := repository.NewProductRepo(db)
	clients := repository.NewClientRepo(db)
	roles := repository.NewRoleRepo(db)
	scopes := repository.NewScopeRepo(db)

	auth := middleware.NewAuth(cfg, users)
	gate := middleware.NewAccessControl(products, users, roles)

	// The limiter degrades to a no-op when Redis is unreachable so that a
	// cache outage cannot take authentication down with it.
	rdb := config.NewRedisClient()
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	mailer := notifier.NewPublisher(cfg.AMQPURL)

	authH := handler.NewAuthHandler(cfg, users, mailer.PublishEmail)
	userH := handler.NewUserHandler(cfg, users, products, roles, mailer.PublishEmail)
	productH := handler.NewProductHandler(products)
	clientH := handler.NewClientHandler(clients, products)
	roleH := handler.NewRoleHandler(roles, products)
	scopeH := handler.NewScopeHandler(scopes, products)

	// The consumer drains the notification queue in the background and
	// reconnects on its own; a broker outage only delays email delivery.
	// Without RABBITMQ_URL the queue is disabled and nothing is started.
	if cfg.AMQPURL != "" {
		go func() {
			if err := queue.StartEmailConsumer(cfg.AMQPURL); err != nil {
				log.Printf("email consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, userH, auth, gate, limiter)
	router.RegisterUsers(e, userH, auth, gate)
	router.RegisterCatalog(e, productH, clientH, roleH, scopeH, gate)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
