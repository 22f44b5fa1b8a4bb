package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"policynav-backend/models"
)

// LocalArchive implements Archive on the local filesystem
type LocalArchive struct {
	basePath string
}

// NewLocalArchive creates a local archive rooted at basePath
func NewLocalArchive(basePath string) (*LocalArchive, error) {
	if basePath == "" {
		basePath = "./storage/responses"
	}
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	return &LocalArchive{
		basePath: basePath,
	}, nil
}

// Put writes the response as a JSON document
func (a *LocalArchive) Put(ctx context.Context, resp *models.ArchivedResponse) (string, error) {
	if resp.ID == uuid.Nil {
		resp.ID = uuid.New()
	}
	storagePath := generateArchivePath(resp)
	fullPath := filepath.Join(a.basePath, storagePath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	resp.StoragePath = storagePath
	data, err := encode(resp)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write archived response: %w", err)
	}

	return storagePath, nil
}

// Get reads an archived response back
func (a *LocalArchive) Get(ctx context.Context, storagePath string) (*models.ArchivedResponse, error) {
	file, err := os.Open(filepath.Join(a.basePath, filepath.Clean("/"+storagePath)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrArchiveNotFound
		}
		return nil, fmt.Errorf("failed to open archived response: %w", err)
	}
	defer file.Close()

	return decode(file)
}

// Delete removes an archived response
func (a *LocalArchive) Delete(ctx context.Context, storagePath string) error {
	err := os.Remove(filepath.Join(a.basePath, filepath.Clean("/"+storagePath)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete archived response: %w", err)
	}

	return nil
}
