package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hatrick/crease/internal/fantrax"
	"github.com/hatrick/crease/internal/stats"
)

// Simple test utility to verify the Fantrax scraper works against a real
// league. Needs FANTRAX_LEAGUE_ID, FANTRAX_USERNAME, FANTRAX_PASSWORD.
func main() {
	log.Println("Testing Fantrax Scraper")
	log.Println("===============================")

	season := 2023
	if raw := os.Getenv("SEASON"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			log.Fatalf("SEASON must be a start year, got %q", raw)
		}
		season = parsed
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Create scraper client
	client, err := fantrax.NewClient(fantrax.ClientConfig{
		BaseURL:  getEnv("FANTRAX_BASE_URL", "https://www.fantrax.com"),
		LeagueID: os.Getenv("FANTRAX_LEAGUE_ID"),
		Username: os.Getenv("FANTRAX_USERNAME"),
		Password: os.Getenv("FANTRAX_PASSWORD"),
	})
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	// Test login
	log.Println("\n1. Logging into Fantrax...")
	if err := client.Login(ctx); err != nil {
		log.Fatalf("Failed to log in: %v", err)
	}
	log.Println("✓ Logged in")

	// Test team discovery
	log.Println("\n2. Discovering league teams...")
	teams, err := fantrax.DiscoverTeams(ctx, client)
	if err != nil {
		log.Fatalf("Failed to discover teams: %v", err)
	}

	log.Printf("✓ Found %d teams", len(teams))
	for i, team := range teams {
		log.Printf("  %d. %s (%s)", i+1, team.Name, team.ID)
	}
	if len(teams) == 0 {
		log.Fatalf("No teams found; check FANTRAX_LEAGUE_ID")
	}

	// Test export download for the first team
	log.Printf("\n3. Downloading regular season %d-%d export for %s...", season, season+1, teams[0].Name)
	csv, err := client.DownloadExport(ctx, teams[0].ID, stats.ReportRegular, season)
	if err != nil {
		log.Fatalf("Failed to download export: %v", err)
	}
	log.Printf("✓ Retrieved CSV content (%d bytes)", len(csv))

	// Parse it
	log.Println("\n4. Parsing export...")
	export, err := fantrax.ParseExport(strings.NewReader(csv), season, stats.ReportRegular)
	if err != nil {
		log.Fatalf("Failed to parse export: %v", err)
	}

	log.Printf("✓ Parsed %d skaters, %d goalies", len(export.Skaters), len(export.Goalies))
	for i, s := range export.Skaters {
		if i == 3 {
			log.Printf("  ... and %d more", len(export.Skaters)-3)
			break
		}
		log.Printf("  %s (%s): %d GP, %d G, %d A", s.Name, s.Position, s.Games, s.Goals, s.Assists)
	}

	log.Println("\n===============================")
	log.Println("✓ Fantrax Scraper Test Complete")

	os.Exit(0)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
