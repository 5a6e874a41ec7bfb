package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"contact-gateway/contact"
	"contact-gateway/contact/application"
	"contact-gateway/contact/domain"
	"contact-gateway/contact/infra"

	"go.uber.org/zap"
)

func main() {
	// Exemplo: embutindo o handler de contato no seu próprio webserver, com
	// store em memória e captcha em bypass (apenas desenvolvimento local).
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store := infra.NewMemoryKV()
	store.StartJanitor(ctx)

	cfg := domain.DefaultConfig()
	cfg.ProductionOrigin = "http://localhost:5173"

	gw := application.NewGateway(cfg, application.Deps{
		Verifier: infra.NewTurnstileVerifier(),
		Counters: store,
		Secret:   os.Getenv("TURNSTILE_SECRET_KEY"),
		Bypass:   application.BypassFlagValue,
		Logger:   logger,
	})
	stats := infra.NewMemoryStatsStore()
	keyFn := contact.ClientIP("X-Real-IP", true)

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/contact", contact.CORS(application.NewOriginPolicy(cfg))(contact.NewHandler(contact.Options{
		Gateway: gw,
		Stats:   stats,
		KeyFn:   keyFn,
		Logger:  logger,
	})))
	mux.HandleFunc("/stats", func(w http.ResponseWriter, r *http.Request) {
		logger.Info("stats", zap.Int64("total", stats.Total()), zap.Any("byOutcome", stats.ByOutcome()))
		w.WriteHeader(http.StatusNoContent)
	})

	h := http.Handler(mux)
	h = contact.ConcurrencyMiddleware(contact.ConcurrencyOptions{
		Max:    50,
		Stats:  stats,
		Logger: logger,
		KeyFn:  keyFn,
	})(h)
	h = contact.RequestLogger(logger, keyFn)(h)
	h = contact.Recover(logger)(h)

	addr := ":8081"
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		addr = v
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("example server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
