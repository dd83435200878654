package main

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"

	"comics-blog/cmd"
	"comics-blog/internal/config"
	"comics-blog/internal/storage"

	"github.com/schollz/progressbar/v3"
)

// Uploads a local CSV file to the location the server loads its dataset from,
// for example an s3:// bucket.
func main() {
	file := flag.String("file", "", "local csv file to upload")
	dest := flag.String("dest", "", "destination, defaults to DATASET_SOURCE")
	cmd.LoadEnvFile()

	if *file == "" {
		log.Fatalf("-file is required")
	}

	cfg, err := config.Parse()
	if err != nil {
		log.Fatalf("%v", err)
	}

	target := *dest
	if target == "" {
		target = cfg.DatasetSource
	}

	source, err := storage.ParseSource(target)
	if err != nil {
		log.Fatalf("invalid destination: %v", err)
	}

	ctx := context.Background()
	provider, err := cmd.NewProvider(ctx, cfg, source)
	if err != nil {
		log.Fatalf("error creating storage provider: %v", err)
	}

	if err := provider.CreateBucket(ctx, source.Bucket); err != nil {
		log.Fatalf("error creating bucket: %v", err)
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("error opening %s: %v", *file, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		log.Fatalf("error reading %s: %v", *file, err)
	}

	bar := progressbar.NewOptions64(info.Size(),
		progressbar.OptionSetDescription("uploading "+source.Key),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
	)

	if err := provider.PutObject(ctx, source.Bucket, source.Key, io.TeeReader(f, bar)); err != nil {
		log.Fatalf("error uploading dataset: %v", err)
	}

	slog.Info("dataset uploaded", "file", *file, "dest", source.String())
}
