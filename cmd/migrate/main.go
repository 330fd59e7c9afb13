package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/samirrijal/voltfinder/internal/adapters/postgres"
	"github.com/samirrijal/voltfinder/internal/pkg/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up>")
	}

	cfg, err := config.Load("voltfinder-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "up":
		err := db.Migrate(ctx, func(name string) {
			fmt.Printf("OK  %s\n", name)
		})
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
		log.Println("all migrations applied")
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
