package main

import (
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/OpenCovidTracking/OCT-Backend/internal/config"
	"github.com/OpenCovidTracking/OCT-Backend/internal/coredata"
	"github.com/OpenCovidTracking/OCT-Backend/internal/db"
	"github.com/OpenCovidTracking/OCT-Backend/internal/seeds"
)

func main() {
	seedFile := flag.String("states", "seeds/states.yaml", "path to the states seed file")
	flag.Parse()

	_ = godotenv.Load(".env.local")
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db.Connect(cfg.DatabaseURL)
	coredata.Init(coredata.CoordinatorConfig{})

	if err := seeds.SeedStates(db.DB, *seedFile); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
}
