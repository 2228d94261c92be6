package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/adapters/storage/gdrive"
	"github.com/thissudhir/buttercut-ai-video-editor-backend/internal/adapters/storage/localfs"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// NewProvider builds the archive provider named by ARCHIVE_PROVIDER. The
// default "none" returns (nil, nil): archiving is off and rendered outputs
// only live in the results directory until the retention sweep.
func NewProvider() (Provider, error) {
	provider := os.Getenv("ARCHIVE_PROVIDER")
	if provider == "" {
		provider = "none"
	}

	switch provider {
	case "none":
		return nil, nil

	case "localfs":
		root := os.Getenv("ARCHIVE_LOCAL_ROOT")
		if root == "" {
			return nil, fmt.Errorf("ARCHIVE_LOCAL_ROOT is required for the localfs archive")
		}
		return localfs.New(root), nil

	case "gdrive":
		return newGDriveProvider()

	default:
		return nil, fmt.Errorf("unknown archive provider: %s", provider)
	}
}

func newGDriveProvider() (Provider, error) {
	ctx := context.Background()

	clientID, err := requireEnv("GDRIVE_CLIENT_ID")
	if err != nil {
		return nil, err
	}
	clientSecret, err := requireEnv("GDRIVE_CLIENT_SECRET")
	if err != nil {
		return nil, err
	}
	refreshToken, err := requireEnv("GDRIVE_REFRESH_TOKEN")
	if err != nil {
		return nil, err
	}
	folderID := os.Getenv("GDRIVE_FOLDER_ID")

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

func requireEnv(k string) (string, error) {
	v := os.Getenv(k)
	if v == "" {
		return "", fmt.Errorf("missing env: %s", k)
	}
	return v, nil
}
