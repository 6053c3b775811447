package coredata

import (
	"log"

	"gorm.io/gorm"

	"github.com/OpenCovidTracking/OCT-Backend/internal/db"
)

var (
	store       *Store
	coordinator *Coordinator
)

// Init migrates the tables and wires the package against the shared
// database connection. Called once from main after db.Connect.
func Init(cfg CoordinatorConfig) {
	InitWithDB(db.DB, cfg)
}

// InitWithDB is Init against an explicit connection; tests use it with an
// in-memory database.
func InitWithDB(gdb *gorm.DB, cfg CoordinatorConfig) {
	store = NewStore(gdb)
	if err := store.AutoMigrate(); err != nil {
		log.Fatal("Failed to auto-migrate tables: ", err)
	}
	coordinator = NewCoordinator(store, cfg)
}
