package attachment

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngBytes is a minimal PNG header; the sniffer only needs the magic
var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

var jpegBytes = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

var svgBytes = []byte(`<?xml version="1.0" encoding="UTF-8"?><svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"></svg>`)

func rawFile(name string, data []byte) *RawFile {
	return &RawFile{
		Filename:     name,
		DeclaredType: "application/octet-stream",
		Size:         int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

func newTestGuard(t *testing.T) *Guard {
	t.Helper()
	return NewGuard(filepath.Join(t.TempDir(), "uploads"), MaxLogoSize, nil)
}

func TestAcceptStoresValidUpload(t *testing.T) {
	g := newTestGuard(t)

	rec, err := g.Accept(rawFile("company-logo.png", pngBytes))
	require.NoError(t, err)

	assert.Equal(t, "company-logo.png", rec.OriginalName)
	assert.Equal(t, int64(len(pngBytes)), rec.SizeBytes)
	assert.True(t, strings.HasPrefix(rec.SniffedType, "image/png"))
	assert.True(t, strings.HasPrefix(filepath.Base(rec.StoredPath), "logo_"))
	assert.True(t, strings.HasSuffix(rec.StoredPath, ".png"))

	info, err := os.Stat(rec.StoredPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	dirInfo, err := os.Stat(filepath.Dir(rec.StoredPath))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dirInfo.Mode().Perm())
}

func TestAcceptAllowsEachPermittedFormat(t *testing.T) {
	testCases := []struct {
		name     string
		filename string
		data     []byte
	}{
		{"png", "logo.png", pngBytes},
		{"jpeg", "logo.jpg", jpegBytes},
		{"jpeg long extension", "logo.jpeg", jpegBytes},
		{"svg", "logo.svg", svgBytes},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			g := newTestGuard(t)
			_, err := g.Accept(rawFile(tc.filename, tc.data))
			assert.NoError(t, err)
		})
	}
}

func TestAcceptRejectsOversizedDeclaredSize(t *testing.T) {
	g := newTestGuard(t)

	f := rawFile("logo.png", pngBytes)
	f.Size = MaxLogoSize + 1
	_, err := g.Accept(f)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestAcceptRejectsOversizedActualContent(t *testing.T) {
	// A small cap keeps the test cheap; the declared size lies
	g := NewGuard(filepath.Join(t.TempDir(), "uploads"), 8, nil)

	f := rawFile("logo.png", pngBytes)
	f.Size = 4
	_, err := g.Accept(f)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestAcceptSizeBoundary(t *testing.T) {
	limit := int64(len(pngBytes))
	g := NewGuard(filepath.Join(t.TempDir(), "uploads"), limit, nil)

	// Exactly at the cap is accepted
	_, err := g.Accept(rawFile("logo.png", pngBytes))
	assert.NoError(t, err)

	// One byte past the cap is rejected
	over := append(append([]byte{}, pngBytes...), 0)
	_, err = g.Accept(rawFile("logo.png", over))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestAcceptRejectsSniffedTypeMismatch(t *testing.T) {
	g := newTestGuard(t)

	// Plain text wearing a .png extension: content sniffing wins
	_, err := g.Accept(rawFile("logo.png", []byte("just some text pretending to be an image")))
	assert.ErrorIs(t, err, ErrBadType)
}

func TestAcceptRejectsDisallowedExtension(t *testing.T) {
	g := newTestGuard(t)

	// Content is a real PNG but the extension is not in the allow list
	_, err := g.Accept(rawFile("logo.gif", pngBytes))
	assert.ErrorIs(t, err, ErrBadExtension)

	_, err = g.Accept(rawFile("logo", pngBytes))
	assert.ErrorIs(t, err, ErrBadExtension)
}

func TestAcceptRejectsTransportError(t *testing.T) {
	g := newTestGuard(t)

	_, err := g.Accept(&RawFile{TransportErr: errors.New("multipart read aborted")})
	assert.ErrorIs(t, err, ErrTransport)
}

func TestAcceptReportsStoreFailure(t *testing.T) {
	// Using an existing file as the directory path makes MkdirAll fail
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	g := NewGuard(filepath.Join(blocker, "uploads"), MaxLogoSize, nil)
	_, err := g.Accept(rawFile("logo.png", pngBytes))
	assert.ErrorIs(t, err, ErrStoreFailed)
}

func TestStoredFilenamesAreCollisionResistant(t *testing.T) {
	g := newTestGuard(t)

	first, err := g.Accept(rawFile("logo.png", pngBytes))
	require.NoError(t, err)
	second, err := g.Accept(rawFile("logo.png", pngBytes))
	require.NoError(t, err)

	assert.NotEqual(t, first.StoredPath, second.StoredPath)
}
