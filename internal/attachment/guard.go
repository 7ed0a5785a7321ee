// Package attachment validates and stores the optional logo upload
// accompanying a contact form submission.
package attachment

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxLogoSize is the upload size cap: 2 MiB
const MaxLogoSize = 2 * 1024 * 1024

// Rejection reasons. The error text is the user-facing message; nothing
// about the storage layout or server internals leaks through it.
var (
	ErrTransport    = errors.New("Logo upload failed. Please try again.")
	ErrTooLarge     = errors.New("Logo file size must not exceed 2 MB.")
	ErrBadType      = errors.New("Invalid logo file type. Only PNG, JPG, JPEG, and SVG are allowed.")
	ErrBadExtension = errors.New("Invalid logo file extension.")
	ErrStoreFailed  = errors.New("Failed to save logo file.")
)

// allowedExtensions lists accepted logo filename extensions
var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".svg":  true,
}

// allowedMIMETypes lists accepted sniffed content types
var allowedMIMETypes = []string{"image/png", "image/jpeg", "image/svg+xml"}

// RawFile is an uploaded file as received from the HTTP layer, before any
// validation. TransportErr carries an upload transport failure reported by
// the multipart reader.
type RawFile struct {
	Filename     string
	DeclaredType string
	Size         int64
	Open         func() (io.ReadCloser, error)
	TransportErr error
}

// Record describes a stored, validated attachment
type Record struct {
	OriginalName string
	DeclaredType string
	SniffedType  string
	SizeBytes    int64
	StoredPath   string
}

// Guard validates uploaded files and moves accepted ones into a private
// scoped directory
type Guard struct {
	dir     string
	maxSize int64
	logger  *slog.Logger

	// now is injectable for tests
	now func() time.Time
}

// NewGuard creates a Guard storing accepted files under dir
func NewGuard(dir string, maxSize int64, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	if maxSize <= 0 {
		maxSize = MaxLogoSize
	}
	return &Guard{
		dir:     dir,
		maxSize: maxSize,
		logger:  logger,
		now:     time.Now,
	}
}

// Accept validates the upload and stores it. The returned error, when
// non-nil, is one of the package's rejection reasons and safe to surface
// to the submitter. Checks run in a fixed order: transport error, size,
// sniffed content type, filename extension, storage.
func (g *Guard) Accept(f *RawFile) (*Record, error) {
	if f.TransportErr != nil {
		g.logger.Warn("logo upload transport error", "error", f.TransportErr)
		return nil, ErrTransport
	}

	if f.Size > g.maxSize {
		return nil, ErrTooLarge
	}

	rc, err := f.Open()
	if err != nil {
		g.logger.Warn("failed to open uploaded logo", "error", err)
		return nil, ErrTransport
	}
	defer rc.Close()

	// The size header is client-declared; cap the actual read as well
	data, err := io.ReadAll(io.LimitReader(rc, g.maxSize+1))
	if err != nil {
		g.logger.Warn("failed to read uploaded logo", "error", err)
		return nil, ErrTransport
	}
	if int64(len(data)) > g.maxSize {
		return nil, ErrTooLarge
	}

	// Content type comes from the bytes, not the declared header, so a
	// spoofed Content-Type cannot smuggle another format through
	sniffed := mimetype.Detect(data)
	if !isAllowedType(sniffed) {
		return nil, ErrBadType
	}

	ext := strings.ToLower(filepath.Ext(f.Filename))
	if !allowedExtensions[ext] {
		return nil, ErrBadExtension
	}

	storedPath, err := g.store(data, ext)
	if err != nil {
		g.logger.Error("failed to store logo", "error", err)
		return nil, ErrStoreFailed
	}

	return &Record{
		OriginalName: filepath.Base(f.Filename),
		DeclaredType: f.DeclaredType,
		SniffedType:  sniffed.String(),
		SizeBytes:    int64(len(data)),
		StoredPath:   storedPath,
	}, nil
}

// store writes the file under a collision-resistant name inside the
// guard's directory, creating it owner-only if absent
func (g *Guard) store(data []byte, ext string) (string, error) {
	if err := os.MkdirAll(g.dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := "logo_" + uuid.New().String() + "_" + strconv.FormatInt(g.now().Unix(), 10) + ext
	path := filepath.Join(g.dir, name)

	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write logo file: %w", err)
	}
	return path, nil
}

func isAllowedType(m *mimetype.MIME) bool {
	for _, allowed := range allowedMIMETypes {
		if m.Is(allowed) {
			return true
		}
	}
	return false
}
