package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/OpenCovidTracking/OCT-Backend/internal/config"
	"github.com/OpenCovidTracking/OCT-Backend/internal/coredata"
	"github.com/OpenCovidTracking/OCT-Backend/internal/db"
	"github.com/OpenCovidTracking/OCT-Backend/internal/middleware"
	"github.com/OpenCovidTracking/OCT-Backend/internal/notify"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db.Connect(cfg.DatabaseURL)

	coordCfg := coredata.CoordinatorConfig{
		Channel:       cfg.SlackChannel,
		AlertChannel:  cfg.SlackAlertChannel,
		NotifyTimeout: cfg.NotifyTimeout(),
	}
	if cfg.WebhookURL != "" {
		coordCfg.Webhook = notify.NewWebhook(cfg.WebhookURL, cfg.NotifyTimeout())
	}
	if cfg.SlackAPIToken != "" {
		coordCfg.Chat = notify.NewSlack(cfg.SlackAPIToken, cfg.NotifyTimeout())
	}

	coredata.Init(coordCfg)

	limiter := rate.NewLimiter(rate.Limit(cfg.PublicRateLimit), cfg.PublicRateBurst)

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)
	r.Get("/", RootHandler)

	r.Mount("/api/v1", coredata.SetupRoutes(
		middleware.TokenAuthMiddleware(cfg.APITokenHash),
		middleware.ThrottleMiddleware(limiter),
	))

	fmt.Println("Server listening on port :" + cfg.Port + "...")

	http.ListenAndServe("0.0.0.0:"+cfg.Port, r)
}
