// cmd/server/main.go
package main

import (
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/kaansenol/hangduel/internal/cache"
	"github.com/kaansenol/hangduel/internal/game"
	"github.com/kaansenol/hangduel/internal/handlers"
	"github.com/kaansenol/hangduel/internal/middleware"
	"github.com/kaansenol/hangduel/internal/scoring"
)

func main() {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	rooms := game.NewRoomStore()
	reg := handlers.NewRegistry(logger)

	engine := game.NewEngine(rooms, logger)
	engine.Notify = reg.Send

	reporter := &game.Reporter{
		Notify: reg.Send,
		Logger: logger,
	}
	if c := scoring.NewClientFromEnv(logger); c != nil {
		reporter.Scores = c
	}

	rdb, err := cache.Connect()
	if err != nil {
		logger.WithError(err).Warn("redis unavailable, trophy accounts and match archive disabled")
	} else {
		accounts := cache.NewAccounts(rdb)
		engine.Accounts = accounts
		reporter.Accounts = accounts
		reporter.Archive = cache.NewQueue(rdb)
	}
	engine.Report = reporter.Report

	mux := http.NewServeMux()
	mux.Handle("/ws", middleware.LogMiddleware(logger)(http.HandlerFunc(
		handlers.WSHandler(logger, reg, engine),
	)))

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("hangduel coordinator running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
