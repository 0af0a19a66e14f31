package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-pdf/fpdf"
)

// Logo is the branding image. It is read from disk on first use and kept
// for the lifetime of the process, including a failed read.
type Logo struct {
	path string

	once      sync.Once
	data      []byte
	imageType string
	aspect    float64
	err       error
}

func NewLogo(path string) *Logo {
	return &Logo{path: path}
}

func (l *Logo) Path() string {
	return l.path
}

// Load returns the image bytes and their fpdf image type.
func (l *Logo) Load() ([]byte, string, error) {
	l.once.Do(func() {
		if l.path == "" {
			l.err = os.ErrNotExist
			return
		}

		imageType, err := imageTypeOf(l.path)
		if err != nil {
			l.err = err
			return
		}

		data, err := os.ReadFile(l.path)
		if err != nil {
			l.err = err
			return
		}

		aspect, err := decodeImage(data, imageType)
		if err != nil {
			l.err = err
			return
		}

		l.data = data
		l.imageType = imageType
		l.aspect = aspect
	})

	return l.data, l.imageType, l.err
}

// HeightFor is the drawn height of the logo at the given width. It is zero
// until Load succeeds.
func (l *Logo) HeightFor(width float64) float64 {
	return width * l.aspect
}

// decodeImage registers the bytes into a scratch document and returns the
// image's height/width ratio.
func decodeImage(data []byte, imageType string) (float64, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	info := pdf.RegisterImageOptionsReader("logo", fpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(data))
	if err := pdf.Error(); err != nil {
		return 0, fmt.Errorf("decode logo: %w", err)
	}
	if info == nil || info.Width() <= 0 || info.Height() <= 0 {
		return 0, fmt.Errorf("decode logo: empty image")
	}
	return info.Height() / info.Width(), nil
}

func imageTypeOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "PNG", nil
	case ".jpg", ".jpeg":
		return "JPG", nil
	case ".gif":
		return "GIF", nil
	default:
		return "", fmt.Errorf("unsupported logo format %q", filepath.Ext(path))
	}
}
