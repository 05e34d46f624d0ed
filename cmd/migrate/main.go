package main

import (
	"context" // Seeding runs under a background context
	"flag"    // Command line flags

	"finance_tracker/internal/config"  // Custom import path (Config)
	"finance_tracker/internal/db"      // Custom import path (Database)
	"finance_tracker/internal/queue"   // Mutation queue used by seeding
	"finance_tracker/internal/service" // Default data seeding
	"finance_tracker/internal/store"   // Persistence

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main entry point for migration
func main() {
	seed := flag.Bool("seed", true, "seed default wallets and categories into empty tables")
	flag.Parse()

	cfg := config.LoadConfig() // Load configuration
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	defer func() { _ = db.Close(gdb) }()

	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("failed to migrate DB: %v", err)
	}
	if !*seed {
		return
	}

	q := queue.New(1, logrus.StandardLogger())
	defer func() { _ = q.Close(context.Background()) }()
	svcs := service.New(store.NewGormStore(gdb), q, nil, service.DefaultConfig(), logrus.StandardLogger())
	if _, err := svcs.Settings.InitDefaults(context.Background()); err != nil {
		logrus.Fatalf("failed to seed default data: %v", err)
	}
}
