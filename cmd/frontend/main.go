package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tlind/drive-finder/pkg/alerts"
	"github.com/tlind/drive-finder/pkg/client"
	"github.com/tlind/drive-finder/pkg/common"
	"github.com/tlind/drive-finder/pkg/search"
	"github.com/tlind/drive-finder/pkg/server"
	"github.com/tlind/drive-finder/pkg/storage"
	"github.com/tlind/drive-finder/pkg/tracking"
	"github.com/tlind/drive-finder/pkg/types"
)

var (
	listenAddr    = ":8080"
	market        = "uk"
	backendUrl    = "http://localhost:9090"
	dataFolder    = "data"
	pageLimit     = 5
	sweepInterval = 15 * time.Minute
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
	if v, ok := os.LookupEnv("LISTEN_ADDR"); ok {
		listenAddr = v
	}
	if v, ok := os.LookupEnv("MARKET"); ok {
		market = v
	}
	if v, ok := os.LookupEnv("BACKEND_URL"); ok {
		backendUrl = v
	}
	if v, ok := os.LookupEnv("DATA_FOLDER"); ok {
		dataFolder = v
	}
	if v, ok := os.LookupEnv("PAGE_LIMIT"); ok {
		if limit, err := strconv.Atoi(v); err == nil {
			pageLimit = limit
		}
	}
	if v, ok := os.LookupEnv("ALERT_SWEEP_INTERVAL"); ok {
		if interval, err := time.ParseDuration(v); err == nil {
			sweepInterval = interval
		}
	}
}

// alertFetcher runs alert sweeps straight against the backend, bypassing
// the per-session cache layer.
type alertFetcher struct {
	client *client.Client
}

func (f *alertFetcher) FetchPage(ctx context.Context, criteria *types.Criteria, page, limit int) (*client.Page, error) {
	return f.client.FetchPage(ctx, criteria, page, limit)
}

var _ search.PageFetcher = &alertFetcher{}

func main() {
	backend := client.New(backendUrl)

	ws := &server.WebServer{
		Client:    backend,
		PageLimit: pageLimit,
	}

	hooks := []common.ShutdownHook{}

	if redisAddr, ok := os.LookupEnv("REDIS_HOST"); ok {
		cache := server.NewCache(redisAddr, os.Getenv("REDIS_PASSWORD"), 0)
		ws.Cache = cache
		hooks = append(hooks, func(ctx context.Context) error {
			return cache.Close()
		})
	}

	if amqpUrl, ok := os.LookupEnv("RABBIT_HOST"); ok {
		tracker, err := tracking.NewRabbitTracking(amqpUrl, market)
		if err != nil {
			log.Printf("Failed to connect to rabbitmq for tracking: %v", err)
		} else {
			ws.Tracking = tracker
			hooks = append(hooks, func(ctx context.Context) error {
				return tracker.Close()
			})
		}
	}

	if os.Getenv("GOOGLE_CLIENT_ID") != "" {
		auth, err := server.NewGoogleAuth()
		if err != nil {
			log.Fatalf("Failed to configure google auth: %v", err)
		}
		ws.Auth = auth
	}

	diskStorage := storage.NewDiskStorage(market, dataFolder)
	alertService := alerts.NewAlertService(diskStorage, &alertFetcher{client: backend})
	ws.Alerts = alertService

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	go alertService.RunSweeper(sweepCtx, sweepInterval)
	hooks = append(hooks, func(ctx context.Context) error {
		stopSweeper()
		return nil
	})

	mux := http.NewServeMux()
	ws.SetupRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{Addr: listenAddr, Handler: mux}
	common.RunServerWithShutdown(httpServer, "frontend", 15*time.Second, 5*time.Second, hooks...)
}
