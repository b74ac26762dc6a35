package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/casedock/casedock-api/apperrors"
	"github.com/casedock/casedock-api/models"
	"github.com/casedock/casedock-api/sanitize"
)

// PDFContentType is the only content type accepted for attachments
const PDFContentType = "application/pdf"

// Upload is one incoming file of a multipart request
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (multipart.File, error)
}

// FromFileHeader adapts a parsed multipart file
func FromFileHeader(fh *multipart.FileHeader) Upload {
	return Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open:        fh.Open,
	}
}

// Limits bound a single batch of attachments
type Limits struct {
	MaxBytes    int64
	MaxFiles    int
	MaxNameLen  int
	Parallelism int
}

// DefaultLimits are 10 MiB per file, 10 files per request and 100 character names
func DefaultLimits() Limits {
	return Limits{MaxBytes: 10 << 20, MaxFiles: 10, MaxNameLen: 100, Parallelism: 4}
}

// Attachments validates and stores case files
type Attachments struct {
	Objects ObjectStore
	Limits  Limits
}

// NewAttachments returns an Attachments using store
func NewAttachments(store ObjectStore, limits Limits) *Attachments {
	return &Attachments{Objects: store, Limits: limits}
}

type checked struct {
	upload Upload
	name   string
	pages  int
}

// Store validates every file, then uploads them in parallel under prefix.
// names[i] is the display name of files[i]. The returned files keep the input
// order. If any upload fails the already stored objects are removed and an
// upstream error is returned.
func (a *Attachments) Store(ctx context.Context, prefix string, files []Upload, names []string) ([]models.CaseFile, error) {
	if len(files) == 0 {
		return nil, nil
	}
	batch, err := a.check(files, names)
	if err != nil {
		return nil, err
	}

	out := make([]models.CaseFile, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	if a.Limits.Parallelism > 0 {
		g.SetLimit(a.Limits.Parallelism)
	}
	for i := range batch {
		i := i
		g.Go(func() error {
			f, err := batch[i].upload.Open()
			if err != nil {
				return err
			}
			defer f.Close()

			key := strings.TrimPrefix(prefix+"/"+uuid.NewString()+".pdf", "/")
			url, err := a.Objects.Put(gctx, key, f, batch[i].upload.Size, PDFContentType)
			if err != nil {
				return err
			}
			out[i] = models.CaseFile{
				FileName:   batch[i].name,
				FileURL:    url,
				StorageKey: key,
				Pages:      batch[i].pages,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		a.Discard(out)
		return nil, apperrors.Upstream("Failed to upload files", err)
	}
	return out, nil
}

// Discard removes stored objects of files that will not be persisted. Errors
// are logged only.
func (a *Attachments) Discard(files []models.CaseFile) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, f := range files {
		if f.StorageKey == "" {
			continue
		}
		if err := a.Objects.Delete(ctx, f.StorageKey); err != nil {
			zap.S().Warnw("failed to remove orphaned attachment", "key", f.StorageKey, "error", err)
		}
	}
}

// check runs every validation before anything is uploaded
func (a *Attachments) check(files []Upload, names []string) ([]checked, error) {
	if a.Limits.MaxFiles > 0 && len(files) > a.Limits.MaxFiles {
		return nil, apperrors.Validation(fmt.Sprintf("You can upload at most %d files at a time", a.Limits.MaxFiles))
	}
	if len(names) != len(files) {
		return nil, apperrors.Validation("Each uploaded file must have a file name")
	}

	batch := make([]checked, len(files))
	for i, u := range files {
		name := sanitize.FileName(names[i], a.Limits.MaxNameLen)
		if name == "" {
			return nil, apperrors.Validation("File names cannot be empty")
		}
		if a.Limits.MaxBytes > 0 && u.Size > a.Limits.MaxBytes {
			return nil, apperrors.Validation(fmt.Sprintf("%s is larger than %d MB", name, a.Limits.MaxBytes>>20))
		}
		pages, err := inspectPDF(u)
		if err != nil {
			return nil, apperrors.Validation(fmt.Sprintf("%s: %v", name, err))
		}
		batch[i] = checked{upload: u, name: name, pages: pages}
	}
	return batch, nil
}

// inspectPDF checks the declared type, the sniffed type and that the file
// parses, and returns its page count. The PDF reader panics on some malformed
// input, which is reported as an invalid file.
func inspectPDF(u Upload) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, err = 0, fmt.Errorf("file is not a valid PDF")
		}
	}()

	if ct := strings.TrimSpace(strings.SplitN(u.ContentType, ";", 2)[0]); ct != PDFContentType {
		return 0, fmt.Errorf("only PDF files are allowed")
	}
	f, err := u.Open()
	if err != nil {
		return 0, fmt.Errorf("cannot read file")
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return 0, fmt.Errorf("cannot read file")
	}
	if http.DetectContentType(head[:n]) != PDFContentType {
		return 0, fmt.Errorf("only PDF files are allowed")
	}

	r, perr := pdf.NewReader(f, u.Size)
	if perr != nil {
		return 0, fmt.Errorf("file is not a valid PDF")
	}
	return r.NumPage(), nil
}
