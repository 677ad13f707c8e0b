package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spendtrack/internal/config"
	"spendtrack/internal/handlers"
	"spendtrack/internal/service"
	"spendtrack/internal/storage"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	if err := db.CleanExpiredSessions(); err != nil {
		logrus.WithError(err).Warn("failed to clean expired sessions")
	}

	svc := service.New(db)
	h := handlers.NewHandlers(db, svc, cfg.SecureCookie)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: setupRouter(h),
	}

	go func() {
		logrus.WithField("addr", cfg.Addr).Info("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("shutdown error")
	}
}

func setupRouter(h *handlers.Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/register", h.Register)
	mux.HandleFunc("POST /api/login", h.Login)
	mux.HandleFunc("POST /api/logout", h.Logout)

	mux.Handle("GET /api/categories", h.AuthMiddleware(http.HandlerFunc(h.ListCategories)))
	mux.Handle("POST /api/categories", h.AuthMiddleware(http.HandlerFunc(h.CreateCategory)))
	mux.Handle("DELETE /api/categories/{id}", h.AuthMiddleware(http.HandlerFunc(h.DeleteCategory)))

	mux.Handle("GET /api/expenses", h.AuthMiddleware(http.HandlerFunc(h.ListExpenses)))
	mux.Handle("POST /api/expenses", h.AuthMiddleware(http.HandlerFunc(h.CreateExpense)))
	mux.Handle("PUT /api/expenses/{id}", h.AuthMiddleware(http.HandlerFunc(h.UpdateExpense)))
	mux.Handle("DELETE /api/expenses/{id}", h.AuthMiddleware(http.HandlerFunc(h.DeleteExpense)))

	mux.Handle("GET /api/dashboard", h.AuthMiddleware(http.HandlerFunc(h.Dashboard)))
	mux.Handle("GET /api/monthly_stats", h.AuthMiddleware(http.HandlerFunc(h.MonthlyStats)))

	return mux
}
