package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vehicle-booking-service/internal/app"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[MAIN] No .env file found, relying on system env vars")
	}

	srv := app.NewServer()

	initCtx, cancelInit := context.WithTimeout(context.Background(), 30*time.Second)
	if err := srv.Init(initCtx); err != nil {
		cancelInit()
		log.Fatalf("[MAIN] failed to initialize server: %v", err)
	}
	cancelInit()

	// Run server in a separate goroutine so we can listen for shutdown signals
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Println("[MAIN] shutting down server...")
	case err := <-errCh:
		if err != nil {
			log.Printf("[MAIN] server failed: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[MAIN] shutdown error: %v", err)
		return
	}
	log.Println("[MAIN] server stopped gracefully")
}
