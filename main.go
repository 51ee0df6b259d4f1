// main.go
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ariebrainware/patient-console/config"
	"github.com/ariebrainware/patient-console/controller"
	"github.com/ariebrainware/patient-console/endpoint"
	"github.com/ariebrainware/patient-console/graphql"
	"github.com/ariebrainware/patient-console/middleware"
	"github.com/ariebrainware/patient-console/model"
	"github.com/ariebrainware/patient-console/session"
	"github.com/ariebrainware/patient-console/util"
	"github.com/ariebrainware/patient-console/view"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load the configuration
	cfg := config.LoadConfig()
	logger := util.NewLogger(cfg.LogLevel)
	util.SetAuditLogger(logger)

	db, err := config.ConnectDatabase()
	if err != nil {
		logger.WithError(err).Fatal("Error connecting to the audit database")
	}
	if db != nil {
		if err := db.AutoMigrate(&model.AuditLog{}); err != nil {
			logger.WithError(err).Fatal("Error migrating the audit database")
		}
		util.SetAuditLoggerDB(db)
	}

	if err := util.InitGeoIP(cfg.GeoIPDBPath); err != nil {
		logger.WithError(err).Warn("GeoIP database unavailable, audit locations disabled")
	}
	defer util.CloseGeoIP()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := util.RegisterGeoIPMetrics(reg); err != nil {
		logger.WithError(err).Fatal("Error registering metrics")
	}

	client := graphql.NewClient(cfg.GraphQLEndpoint,
		graphql.WithTimeout(cfg.GraphQLTimeout),
		graphql.WithLogger(logger),
	)
	patients := graphql.NewPatientService(client, graphql.WithMetrics(graphql.NewMetrics(reg)))

	renderer, err := view.NewRenderer()
	if err != nil {
		logger.WithError(err).Fatal("Error parsing templates")
	}
	ctrl := controller.New(patients, renderer, logger)
	rdb, err := config.ConnectRedis()
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable, rate limiting disabled")
	}
	handler := endpoint.NewHandler(ctrl, newStore(cfg, rdb, logger), cfg.AppName, logger)

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(logger),
		middleware.Recovery(logger),
		middleware.SecurityHeaders(),
		middleware.Session(cfg),
	)
	handler.RegisterRoutes(router, renderer, middleware.RateLimiter(middleware.RateLimitConfig{
		Limit:  cfg.RateLimit,
		Window: cfg.RateWindow,
		Logger: logger,
	}))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	logger.WithFields(logrus.Fields{
		"port":          cfg.AppPort,
		"graphql":       client.Endpoint(),
		"session_store": cfg.SessionStore,
	}).Infof("Starting %s", cfg.AppName)

	// Start server on specified port
	address := fmt.Sprintf(":%d", cfg.AppPort)
	if err := router.Run(address); err != nil {
		logger.WithError(err).Fatal("Error starting server")
	}
}

// newStore keeps page state in Redis when configured and connected, in
// process memory otherwise.
func newStore(cfg *config.Config, rdb *redis.Client, logger *logrus.Logger) session.Store {
	if strings.EqualFold(cfg.SessionStore, "redis") {
		if rdb != nil {
			return session.NewRedisStore(rdb, cfg.SessionTTL, session.WithRedisBusyTTL(busyTTL(cfg)))
		}
		logger.Warn("SESSION_STORE=redis needs a connected Redis (REDIS_ENABLED=true), keeping sessions in memory")
	}
	return session.NewMemoryStore(cfg.SessionTTL, session.WithMemoryBusyTTL(busyTTL(cfg)))
}

// busyTTL outlasts the slowest GraphQL call an action can make. Without a
// configured timeout the store default applies.
func busyTTL(cfg *config.Config) time.Duration {
	if cfg.GraphQLTimeout > 0 {
		return 2 * cfg.GraphQLTimeout
	}
	return session.DefaultBusyTTL
}
