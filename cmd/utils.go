package cmd

import (
	"context"
	"flag"
	"log"

	"comics-blog/internal/config"
	"comics-blog/internal/storage"
)

// LoadEnvFile parses the command line and loads the file given with -env.
// Commands register their own flags before calling it.
func LoadEnvFile() {
	var configPath string

	flag.StringVar(&configPath, "env", "", "path to load env from")
	flag.Parse()

	if err := config.LoadEnvFile(configPath); err != nil {
		log.Fatalf("%v", err)
	}
}

// NewProvider returns the storage provider that can read source.
func NewProvider(ctx context.Context, cfg *config.Config, source storage.Source) (storage.Provider, error) {
	if source.Scheme == storage.SchemeS3 {
		return storage.NewS3Provider(ctx, &storage.S3ProviderConfig{
			S3EndpointURL:     cfg.S3EndpointURL,
			S3AccessKeyID:     cfg.S3AccessKeyID,
			S3SecretAccessKey: cfg.S3SecretAccessKey,
			S3Region:          cfg.S3Region,
		})
	}
	return storage.NewLocalProvider("."), nil
}
