package service

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caselens/casefile-be/utils"
)

// FileService stores uploaded files on local disk under uploadDir. The
// stored name is the sanitized original name suffixed with the upload
// timestamp so repeated uploads of the same file never collide.
type FileService struct {
	uploadDir string
}

func NewFileService(uploadDir string) (*FileService, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &FileService{uploadDir: uploadDir}, nil
}

// SaveUpload writes the multipart file to disk and returns its storage
// path.
func (s *FileService) SaveUpload(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(file.Filename))
	base := utils.SanitizeFilename(strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename)))
	filename := fmt.Sprintf("%s_%d%s", base, time.Now().UnixNano(), ext)

	path := filepath.Join(s.uploadDir, filename)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

// SaveLocal copies a file from the local filesystem into the upload
// directory, for CLI ingestion.
func (s *FileService) SaveLocal(srcPath string) (string, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(srcPath))
	base := utils.SanitizeFilename(strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath)))
	filename := fmt.Sprintf("%s_%d%s", base, time.Now().UnixNano(), ext)

	path := filepath.Join(s.uploadDir, filename)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return path, nil
}

func (s *FileService) Read(storagePath string) ([]byte, error) {
	return os.ReadFile(storagePath)
}

// Delete removes a stored file. A missing file is not an error so
// document deletion stays idempotent.
func (s *FileService) Delete(storagePath string) error {
	if storagePath == "" {
		return nil
	}
	if err := os.Remove(storagePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
