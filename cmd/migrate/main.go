package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"amen-chat/config"
	"amen-chat/internal/store"
)

const usage = `
Amen Chat - Table CLI Tool

Usage:
  migrate [command]

Commands:
  up          Create all DynamoDB tables and indexes
  status      Show table status

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go status
`

func main() {
	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	cfg := config.LoadConfig()
	ctx := context.Background()

	client, err := store.NewClient(ctx, store.ClientConfig{
		Region:    cfg.AWSRegion,
		Endpoint:  cfg.AWSEndpoint,
		AccessKey: cfg.AWSAccessKey,
		SecretKey: cfg.AWSSecretKey,
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to DynamoDB: %v", err)
	}

	st := store.New(client, store.Tables{
		Conversations: cfg.ConversationsTable,
		Messages:      cfg.MessagesTable,
		Blocks:        cfg.BlocksTable,
		Follows:       cfg.FollowsTable,
		Settings:      cfg.SettingsTable,
	})

	switch command {
	case "up":
		runUp(ctx, st)
	case "status":
		showStatus(ctx, st)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runUp(ctx context.Context, st *store.Store) {
	log.Println("🚀 Creating tables...")

	if err := st.EnsureTables(ctx); err != nil {
		log.Fatalf("❌ Table creation failed: %v", err)
	}

	log.Println("✅ Tables created successfully!")
}

func showStatus(ctx context.Context, st *store.Store) {
	log.Println("🔍 Checking table status...")

	statuses, err := st.TableStatus(ctx)
	if err != nil {
		log.Fatalf("❌ Status check failed: %v", err)
	}

	for name, status := range statuses {
		if status == "MISSING" {
			log.Printf("❌ Table %-20s does not exist", name)
			continue
		}
		log.Printf("✅ Table %-20s %s", name, status)
	}
}
