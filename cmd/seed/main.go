package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"comics-blog/cmd"
	"comics-blog/internal/blog"
	"comics-blog/internal/config"
	"comics-blog/internal/database"
)

// Loads categories and posts from a yaml seed file into the blog database.
func main() {
	file := flag.String("file", "", "yaml seed file")
	cmd.LoadEnvFile()

	if *file == "" {
		log.Fatalf("-file is required")
	}

	cfg, err := config.Parse()
	if err != nil {
		log.Fatalf("%v", err)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("error reading %s: %v", *file, err)
	}

	seed, err := blog.ParseSeed(data)
	if err != nil {
		log.Fatalf("%v", err)
	}

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer database.Close(db)

	result, err := blog.NewStore(db).ApplySeed(context.Background(), seed)
	if err != nil {
		log.Fatalf("%v", err)
	}

	slog.Info("seed complete", "file", *file, "categories", result.Categories, "posts", result.Posts)
}
