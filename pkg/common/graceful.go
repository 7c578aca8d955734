package common

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ShutdownHook runs after a termination signal is received but before the
// HTTP server begins its graceful shutdown. A hook error is logged and
// shutdown continues regardless.
type ShutdownHook func(ctx context.Context) error

// RunServerWithShutdown starts the provided *http.Server and blocks until
// SIGINT or SIGTERM. It then runs the hooks in order, each bounded by
// hookTimeout, and finally shuts the server down within shutdownTimeout.
//
// Typical usage in main:
//
//	server := &http.Server{Addr: ":8080", Handler: mux, ReadHeaderTimeout: 5 * time.Second}
//	common.RunServerWithShutdown(server, "frontend", 15*time.Second, 5*time.Second, flushHook)
func RunServerWithShutdown(server *http.Server, name string, shutdownTimeout, hookTimeout time.Duration, hooks ...ShutdownHook) {
	if hookTimeout <= 0 {
		hookTimeout = 5 * time.Second
	}

	go func() {
		log.Printf("starting %s on %s", name, server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("%s listen error: %v", name, err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Printf("shutdown signal received for %s", name)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for i, hook := range hooks {
		if hook == nil {
			continue
		}
		hookCtx, hookCancel := context.WithTimeout(ctx, hookTimeout)
		if err := hook(hookCtx); err != nil {
			log.Printf("shutdown hook %d failed: %v", i, err)
		}
		hookCancel()
	}

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("%s shutdown error: %v", name, err)
	} else {
		log.Printf("%s stopped", name)
	}
}
