package seeds

import (
	"fmt"
	"log"
	"os"

	"github.com/goccy/go-yaml"
	"gorm.io/gorm"

	"github.com/OpenCovidTracking/OCT-Backend/internal/coredata"
)

// StateSeed is one entry in the states seed file.
type StateSeed struct {
	State       string `yaml:"state"`
	Name        string `yaml:"name"`
	Twitter     string `yaml:"twitter"`
	Covid19Site string `yaml:"covid19Site"`
	Pum         bool   `yaml:"pum"`
}

// SeedStates loads the reference state records from a YAML file. Existing
// rows keep any metadata already edited in; only the seeded fields are set.
func SeedStates(gdb *gorm.DB, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var entries []StateSeed
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	store := coredata.NewStore(gdb)
	for _, entry := range entries {
		updates := map[string]any{}
		if entry.Name != "" {
			updates["name"] = entry.Name
		}
		if entry.Twitter != "" {
			updates["twitter"] = entry.Twitter
		}
		if entry.Covid19Site != "" {
			updates["covid19_site"] = entry.Covid19Site
		}
		if entry.Pum {
			updates["pum"] = true
		}
		if _, err := store.UpsertState(coredata.StateEdit{Code: entry.State, Updates: updates}); err != nil {
			return fmt.Errorf("seed state %s: %w", entry.State, err)
		}
	}

	log.Printf("Seeded %d states", len(entries))
	return nil
}
