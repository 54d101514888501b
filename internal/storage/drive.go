package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"fleetdocs/internal/logger"
)

const folderMimeType = "application/vnd.google-apps.folder"

// GoogleDriveStorage implements ObjectStorage on Google Drive.
type GoogleDriveStorage struct {
	svc        *drive.Service
	rootFolder string
	log        zerolog.Logger
}

// NewGoogleDriveStorage creates a Drive storage service with credentials
// from the environment. All uploads land beneath rootFolder, which is
// created at the Drive root when absent.
func NewGoogleDriveStorage(ctx context.Context, rootFolder string) (ObjectStorage, error) {
	const op = "NewGoogleDriveStorage"

	var clientOptions []option.ClientOption
	clientOptions = append(clientOptions, option.WithScopes(drive.DriveFileScope))

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		clientOptions = append(clientOptions, option.WithCredentialsJSON([]byte(credJSON)))
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		clientOptions = append(clientOptions, option.WithCredentialsFile(credFile))
	}

	svc, err := drive.NewService(ctx, clientOptions...)
	if err != nil {
		if len(clientOptions) == 1 {
			return nil, WrapStorageError(op, ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapStorageError(op, err, "creating Drive service")
	}

	return &GoogleDriveStorage{
		svc:        svc,
		rootFolder: rootFolder,
		log:        logger.WithComponent("drive-storage"),
	}, nil
}

// NewGoogleDriveStorageWithService wraps an existing Drive service (for testing).
func NewGoogleDriveStorageWithService(svc *drive.Service, rootFolder string) ObjectStorage {
	return &GoogleDriveStorage{
		svc:        svc,
		rootFolder: rootFolder,
		log:        logger.WithComponent("drive-storage"),
	}
}

// Upload stores data under filename inside folderPath beneath the root
// folder, creating nested folders as needed.
func (g *GoogleDriveStorage) Upload(ctx context.Context, data []byte, filename, folderPath, contentType string) (FileRef, error) {
	const op = "Upload"

	parentID, err := g.ensureFolderPath(ctx, folderPath)
	if err != nil {
		return FileRef{}, WrapStorageError(op, err, folderPath)
	}

	meta := &drive.File{
		Name:     filename,
		MimeType: contentType,
		Parents:  []string{parentID},
	}

	created, err := g.svc.Files.Create(meta).
		Media(bytes.NewReader(data)).
		Fields("id, webViewLink").
		Context(ctx).
		Do()
	if err != nil {
		return FileRef{}, WrapStorageError(op, ErrUploadFailed, fmt.Sprintf("%s: %v", filename, err))
	}

	g.log.Info().
		Str("file_id", created.Id).
		Str("filename", filename).
		Str("folder", folderPath).
		Int("bytes", len(data)).
		Msg("File uploaded")

	return FileRef{ID: created.Id, URL: created.WebViewLink}, nil
}

// Move relocates the file into another folder path beneath the root.
func (g *GoogleDriveStorage) Move(ctx context.Context, ref FileRef, folderPath string) error {
	const op = "Move"

	newParent, err := g.ensureFolderPath(ctx, folderPath)
	if err != nil {
		return WrapStorageError(op, err, folderPath)
	}

	current, err := g.svc.Files.Get(ref.ID).Fields("parents").Context(ctx).Do()
	if err != nil {
		return WrapStorageError(op, ErrNotFound, ref.ID)
	}

	_, err = g.svc.Files.Update(ref.ID, nil).
		AddParents(newParent).
		RemoveParents(strings.Join(current.Parents, ",")).
		Context(ctx).
		Do()
	if err != nil {
		return WrapStorageError(op, err, ref.ID)
	}
	return nil
}

// Rename changes the display name of a stored file.
func (g *GoogleDriveStorage) Rename(ctx context.Context, ref FileRef, newName string) error {
	const op = "Rename"

	_, err := g.svc.Files.Update(ref.ID, &drive.File{Name: newName}).Context(ctx).Do()
	if err != nil {
		return WrapStorageError(op, err, ref.ID)
	}
	return nil
}

// Delete removes a stored file.
func (g *GoogleDriveStorage) Delete(ctx context.Context, ref FileRef) error {
	const op = "Delete"

	if err := g.svc.Files.Delete(ref.ID).Context(ctx).Do(); err != nil {
		return WrapStorageError(op, err, ref.ID)
	}
	return nil
}

// ensureFolderPath resolves (creating when absent) the nested folder path
// beneath the root folder and returns the leaf folder id.
func (g *GoogleDriveStorage) ensureFolderPath(ctx context.Context, folderPath string) (string, error) {
	segments := []string{}
	if g.rootFolder != "" {
		segments = append(segments, g.rootFolder)
	}
	for _, s := range strings.Split(folderPath, "/") {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, s)
		}
	}

	parent := "root"
	for _, name := range segments {
		id, err := g.findFolder(ctx, name, parent)
		if err != nil {
			return "", err
		}
		if id == "" {
			id, err = g.createFolder(ctx, name, parent)
			if err != nil {
				return "", err
			}
		}
		parent = id
	}
	return parent, nil
}

// findFolder looks up a folder by name under a parent. Returns "" when absent.
func (g *GoogleDriveStorage) findFolder(ctx context.Context, name, parentID string) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and '%s' in parents and trashed = false",
		escapeQuery(name), folderMimeType, parentID)

	list, err := g.svc.Files.List().
		Q(query).
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("listing folders: %w", err)
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].Id, nil
}

// createFolder creates a folder under a parent and returns its id.
func (g *GoogleDriveStorage) createFolder(ctx context.Context, name, parentID string) (string, error) {
	folder, err := g.svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{parentID},
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("creating folder %q: %w", name, err)
	}

	g.log.Debug().Str("folder", name).Str("folder_id", folder.Id).Msg("Folder created")
	return folder.Id, nil
}

// escapeQuery escapes single quotes for Drive query strings.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
