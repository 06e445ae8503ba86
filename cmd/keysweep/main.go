package main

import (
	"context"
	"log"
	"time"

	"github.com/synergylearning/moodle-mod-onlyoffice/internal/config"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/database"
	docrepo "github.com/synergylearning/moodle-mod-onlyoffice/internal/document/repository"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/document/store"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/events"
	"github.com/synergylearning/moodle-mod-onlyoffice/internal/storage"
)

// keysweep re-keys documents whose keys collide. Key uniqueness is
// best-effort at creation time; run this once after restoring or merging
// databases.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.MongoDB.URI == "" {
		log.Fatal("MONGODB_URI is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
	if err != nil {
		log.Fatalf("connect to MongoDB: %v", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	docs := docrepo.NewMongoRepo(client.Database(cfg.MongoDB.Database).Collection("documents"))
	st := store.New(docs, storage.NewMemoryStorage(), events.NewMemorySink())

	n, err := st.DedupKeys(ctx)
	if err != nil {
		log.Fatalf("sweep failed after re-keying %d documents: %v", n, err)
	}
	log.Printf("sweep complete: re-keyed %d documents", n)
}
