// Command scan runs one scan tick outside the schedule, for all platforms or
// the one named as an argument.
package main

import (
	"context"
	"log"
	"os"

	"reply-scout/internal/approval"
	"reply-scout/internal/bridge"
	"reply-scout/internal/config"
	"reply-scout/internal/database"
	"reply-scout/internal/limiter"
	"reply-scout/internal/platform"
	"reply-scout/internal/ranker"
	"reply-scout/internal/scan"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	platforms := platform.All()
	if len(os.Args) > 1 {
		p, err := platform.Parse(os.Args[1])
		if err != nil {
			log.Fatal(err)
		}
		platforms = []platform.Platform{p}
	}

	// Connect to database
	dbConfig := database.LoadConfig()
	if err := database.Connect(dbConfig); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	bridgeURL := os.Getenv("BRIDGE_URL")
	if bridgeURL == "" {
		log.Fatal("BRIDGE_URL must be set to run a scan")
	}
	client := bridge.NewClient(bridgeURL, os.Getenv("BRIDGE_SECRET"))

	gate := limiter.New(database.DB)
	rk := ranker.New(cfg.TopicKeywords)
	workflow := approval.New(database.DB, gate, client, client, client)
	orchestrator := scan.New(client, client, gate, rk, workflow, scan.Options{
		MinRelevance: cfg.MinRelevance,
		RankWindow:   cfg.RankWindow,
		TickCap:      cfg.TickCap,
	})

	report, err := orchestrator.RunTick(context.Background(), platforms)
	if err != nil {
		log.Fatal("Scan tick failed:", err)
	}

	for _, pr := range report.Platforms {
		if pr.Skipped {
			log.Printf("%s: skipped (%s)", pr.Platform, pr.SkipReason)
			continue
		}
		if pr.Error != "" {
			log.Printf("%s: failed (%s)", pr.Platform, pr.Error)
			continue
		}
		log.Printf("%s: fetched %d, fresh %d, ranked %d, reply-worthy %d",
			pr.Platform, pr.Fetched, pr.AfterDedup, pr.Ranked, pr.ReplyWorthy)
	}
	log.Printf("✅ Tick complete: %d candidate(s) presented in %v", report.Candidates, report.Duration)
}
