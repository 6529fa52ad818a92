package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const (
	logPrefix      = "drive"
	folderMimeType = "application/vnd.google-apps.folder"
	rootFolder     = "root"
)

var (
	ErrInvalidCredentials = errors.New("invalid drive credentials")
	ErrFolderNotFound     = errors.New("drive folder not found")
)

// Config - where the credentials are and where uploads go
type Config struct {
	// ClientConfig is the oauth client json downloaded from the cloud
	// console. It may be empty when the token file carries the client.
	ClientConfig  string
	Token         string
	Folder        string
	TempDir       string
	CreateFolders bool
}

// storedToken reads both oauth2 tokens and the token files written by
// google client libraries, which name the expiry token_expiry and carry
// the client with them.
type storedToken struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry"`
	TokenExpiry  time.Time `json:"token_expiry"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
	TokenURI     string    `json:"token_uri"`
}

func (t storedToken) token() *oauth2.Token {
	expiry := t.Expiry
	if expiry.IsZero() {
		expiry = t.TokenExpiry
	}
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    t.TokenType,
		RefreshToken: t.RefreshToken,
		Expiry:       expiry,
	}
}

func loadCredentials(cfg Config) (*oauth2.Config, *oauth2.Token, error) {
	b, err := os.ReadFile(cfg.Token)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	var stored storedToken
	if err := json.Unmarshal(b, &stored); err != nil {
		return nil, nil, fmt.Errorf("%w: token %s: %w", ErrInvalidCredentials, cfg.Token, err)
	}
	if stored.AccessToken == "" && stored.RefreshToken == "" {
		return nil, nil, fmt.Errorf("%w: token %s has neither access nor refresh token", ErrInvalidCredentials, cfg.Token)
	}

	if cfg.ClientConfig == "" {
		if stored.ClientID == "" {
			return nil, nil, fmt.Errorf("%w: no client config and token %s names no client", ErrInvalidCredentials, cfg.Token)
		}
		endpoint := google.Endpoint
		if stored.TokenURI != "" {
			endpoint.TokenURL = stored.TokenURI
		}
		return &oauth2.Config{
			ClientID:     stored.ClientID,
			ClientSecret: stored.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       []string{drive.DriveFileScope},
		}, stored.token(), nil
	}

	b, err = os.ReadFile(cfg.ClientConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	oc, err := google.ConfigFromJSON(b, drive.DriveFileScope)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: client config %s: %w", ErrInvalidCredentials, cfg.ClientConfig, err)
	}
	return oc, stored.token(), nil
}

// Uploader stores files in a drive folder
type Uploader struct {
	service       *drive.Service
	folder        string
	tempDir       string
	createFolders bool

	sync.Mutex
	folderID string
}

// New loads the credentials and connects a drive service. The context is
// kept by the token source to refresh the access token.
func New(ctx context.Context, cfg Config) (*Uploader, error) {
	oc, token, err := loadCredentials(cfg)
	if err != nil {
		log.WithFields(log.Fields{
			"prefix": logPrefix,
			"error":  err,
		}).Error("load drive credentials")
		return nil, err
	}

	service, err := drive.NewService(ctx, option.WithHTTPClient(oc.Client(ctx, token)))
	if err != nil {
		return nil, err
	}

	return NewWithService(service, cfg), nil
}

func NewWithService(service *drive.Service, cfg Config) *Uploader {
	return &Uploader{
		service:       service,
		folder:        strings.Trim(cfg.Folder, "/"),
		tempDir:       cfg.TempDir,
		createFolders: cfg.CreateFolders,
	}
}

// Upload spools data to a temporary file and uploads it into the folder.
// The temporary file is removed whatever the outcome.
func (u *Uploader) Upload(ctx context.Context, name string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(u.tempDir, "upload-*-"+path.Base(name))
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := tmp.Write(data); err != nil {
		return "", err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	parent, err := u.resolveFolder(ctx)
	if err != nil {
		return "", err
	}

	created, err := u.service.Files.Create(&drive.File{
		Name:    name,
		Parents: []string{parent},
	}).Media(tmp).Fields("id", "name").Context(ctx).Do()
	if err != nil {
		return "", err
	}

	location := path.Join(u.folder, name)
	log.WithFields(log.Fields{
		"prefix":   logPrefix,
		"file_id":  created.Id,
		"location": location,
	}).Info("file uploaded")

	return location, nil
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// resolveFolder walks the folder path from the drive root, creating missing
// folders when allowed. The id is remembered once resolved.
func (u *Uploader) resolveFolder(ctx context.Context) (string, error) {
	u.Lock()
	defer u.Unlock()

	if u.folderID != "" {
		return u.folderID, nil
	}
	if u.folder == "" {
		return rootFolder, nil
	}

	parent := rootFolder
	for _, segment := range strings.Split(u.folder, "/") {
		if segment == "" {
			continue
		}

		q := fmt.Sprintf("name = '%s' and mimeType = '%s' and '%s' in parents and trashed = false",
			escapeQuery(segment), folderMimeType, parent)
		list, err := u.service.Files.List().Q(q).Fields("files(id, name)").PageSize(1).Context(ctx).Do()
		if err != nil {
			return "", err
		}

		if len(list.Files) > 0 {
			parent = list.Files[0].Id
			continue
		}

		if !u.createFolders {
			return "", fmt.Errorf("%w: %s", ErrFolderNotFound, u.folder)
		}

		folder, err := u.service.Files.Create(&drive.File{
			Name:     segment,
			MimeType: folderMimeType,
			Parents:  []string{parent},
		}).Fields("id").Context(ctx).Do()
		if err != nil {
			return "", err
		}

		log.WithFields(log.Fields{
			"prefix":    logPrefix,
			"folder":    segment,
			"folder_id": folder.Id,
		}).Info("folder created")
		parent = folder.Id
	}

	u.folderID = parent
	return parent, nil
}
