package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"go-gin-event-tickets/internal/model"
	apperrors "go-gin-event-tickets/pkg/app_errors"
	"go-gin-event-tickets/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImageStore persists uploaded ticket images and returns their public URLs in input order.
type ImageStore interface {
	SaveTicketImages(ctx context.Context, ticket *model.Ticket, files []*multipart.FileHeader) ([]string, error)
	// DeleteImages removes files previously returned by SaveTicketImages.
	// URLs this store did not issue are ignored.
	DeleteImages(ctx context.Context, urls []string) error
}

var allowedImageTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
}

type LocalImageStore struct {
	baseDir       string
	publicBaseURL string
	maxBytes      int64
}

func NewLocalImageStore(baseDir, publicBaseURL string, maxBytes int64) *LocalImageStore {
	return &LocalImageStore{
		baseDir:       baseDir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		maxBytes:      maxBytes,
	}
}

// SaveTicketImages 檢查全部檔案後才寫入; 寫入失敗時清除本次已寫的檔案
func (s *LocalImageStore) SaveTicketImages(ctx context.Context, ticket *model.Ticket, files []*multipart.FileHeader) ([]string, error) {
	for _, fh := range files {
		if err := s.check(fh); err != nil {
			return nil, err
		}
	}

	relDir := path.Join("events", strconv.FormatInt(ticket.EventID, 10), "tickets", strconv.FormatInt(ticket.TicketID, 10))
	dir := filepath.Join(s.baseDir, filepath.FromSlash(relDir))
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	urls := make([]string, 0, len(files))
	written := make([]string, 0, len(files))
	for _, fh := range files {
		if err := ctx.Err(); err != nil {
			s.cleanup(written)
			return nil, err
		}

		name := uuid.New().String() + strings.ToLower(filepath.Ext(fh.Filename))
		full := filepath.Join(dir, name)
		if err := saveFile(fh, full); err != nil {
			s.cleanup(written)
			return nil, fmt.Errorf("save image %q: %w", fh.Filename, err)
		}
		written = append(written, full)
		urls = append(urls, s.publicBaseURL+"/"+path.Join(relDir, name))
	}

	logger.WithComponent("storage").Info("ticket images stored",
		zap.Int64("event_id", ticket.EventID),
		zap.Int64("ticket_id", ticket.TicketID),
		zap.Int("count", len(urls)),
	)
	return urls, nil
}

func (s *LocalImageStore) check(fh *multipart.FileHeader) error {
	if s.maxBytes > 0 && fh.Size > s.maxBytes {
		return fmt.Errorf("%w: file %q exceeds maximum size of %d bytes", apperrors.ErrInvalidInput, fh.Filename, s.maxBytes)
	}

	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	buffer := make([]byte, 512)
	n, err := src.Read(buffer)
	if err != nil && err != io.EOF {
		return err
	}
	mimeType := http.DetectContentType(buffer[:n])
	if !slices.Contains(allowedImageTypes, mimeType) {
		return fmt.Errorf("%w: file %q has type %s, allowed types: %v", apperrors.ErrInvalidInput, fh.Filename, mimeType, allowedImageTypes)
	}
	return nil
}

func saveFile(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (s *LocalImageStore) cleanup(paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil {
			logger.WithComponent("storage").Warn("remove partial upload failed", zap.String("path", p), zap.Error(err))
		}
	}
}

// DeleteImages 刪除本 store 產生的圖片; 檔案已不存在不算錯誤
func (s *LocalImageStore) DeleteImages(ctx context.Context, urls []string) error {
	var errs []error
	for _, u := range urls {
		if err := ctx.Err(); err != nil {
			return err
		}
		full, ok := s.localPath(u)
		if !ok {
			continue
		}
		if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove image %q: %w", u, err))
		}
	}
	return errors.Join(errs...)
}

// localPath maps a public URL back under baseDir. Paths escaping baseDir are rejected.
func (s *LocalImageStore) localPath(u string) (string, bool) {
	rel, ok := strings.CutPrefix(u, s.publicBaseURL+"/")
	if !ok || !filepath.IsLocal(filepath.FromSlash(rel)) {
		return "", false
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(rel)), true
}
