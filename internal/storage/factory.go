package storage

import (
	"context"
	"fmt"

	"chatshot/internal/adapters/storage/gdrive"
	"chatshot/internal/adapters/storage/httpstore"
	"chatshot/internal/adapters/storage/localfs"
	"chatshot/internal/config"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// NewProvider builds the storage provider selected by configuration.
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.StorageProvider {
	case "localfs":
		return localfs.New(cfg.OutputDir), nil

	case "httpstore":
		if cfg.StorageBaseURL == "" {
			return nil, fmt.Errorf("STORAGE_BASE_URL is required for httpstore")
		}
		return httpstore.New(cfg.StorageBaseURL, cfg.StorageBucket), nil

	case "gdrive":
		return newGDriveProvider()

	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.StorageProvider)
	}
}

func newGDriveProvider() (Provider, error) {
	ctx := context.Background()

	clientID := config.MustEnv("GDRIVE_CLIENT_ID")
	clientSecret := config.MustEnv("GDRIVE_CLIENT_SECRET")
	refreshToken := config.MustEnv("GDRIVE_REFRESH_TOKEN")
	folderID := config.Env("GDRIVE_FOLDER_ID", "")

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
	}

	tok := &oauth2.Token{RefreshToken: refreshToken}
	httpClient := conf.Client(ctx, tok)

	srv, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}

	return gdrive.NewClient(srv, folderID), nil
}
