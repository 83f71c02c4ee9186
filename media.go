package folio

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/dnnweb/folio/contentapi"
)

const (
	maxImageWidth = 800
	jpegQuality   = 80
	maxMediaSize  = 10 << 20 // 10MB
)

// errNotRaster is returned for assets the image decoders do not understand,
// such as SVG. Those are linked directly instead of proxied.
var errNotRaster = errors.New("not a raster image")

// mediaProxy fetches images from the content API, downscales them and keeps
// the result on disk.
type mediaProxy struct {
	server string
	dir    string
	client *http.Client
}

func newMediaProxy(server, dir string, client *http.Client) *mediaProxy {
	return &mediaProxy{server: server, dir: dir, client: client}
}

// URL maps an API asset path to its proxied URL. Assets hosted elsewhere
// are returned unchanged.
func (m *mediaProxy) URL(asset string) string {
	if asset == "" {
		return ""
	}
	if strings.HasPrefix(asset, "http://") || strings.HasPrefix(asset, "https://") {
		if m.server == "" || !strings.HasPrefix(asset, m.server+"/") {
			return asset
		}
		asset = strings.TrimPrefix(asset, m.server)
	}
	return "/media/" + strings.TrimPrefix(path.Clean("/"+asset), "/")
}

func (m *mediaProxy) cachePath(asset string) string {
	sum := sha256.Sum256([]byte(asset))
	return filepath.Join(m.dir, hex.EncodeToString(sum[:16])+".jpg")
}

// Get returns the resized JPEG for asset, fetching it on a cache miss.
func (m *mediaProxy) Get(ctx context.Context, asset string) ([]byte, error) {
	file := m.cachePath(asset)
	if data, err := os.ReadFile(file); err == nil {
		return data, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, contentapi.AssetURL(m.server, asset), nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch media %s: %w", asset, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, &contentapi.APIError{Op: asset, StatusCode: resp.StatusCode, Status: http.StatusText(resp.StatusCode)}
	}

	data, err := processImage(io.LimitReader(resp.Body, maxMediaSize))
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	tmp := file + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return nil, fmt.Errorf("write media: %w", err)
	}
	if err := os.Rename(tmp, file); err != nil {
		return nil, fmt.Errorf("write media: %w", err)
	}
	return data, nil
}

// processImage decodes an image, resizes it to maxImageWidth if it is
// wider, and encodes it as JPEG.
func processImage(src io.Reader) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, errNotRaster
		}
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func (a *App) handleMedia(c echo.Context) error {
	asset := path.Clean("/" + c.Param("*"))
	if asset == "/" {
		return echo.NewHTTPError(http.StatusNotFound)
	}
	data, err := a.media.Get(c.Request().Context(), asset)
	switch {
	case err == nil:
		return c.Blob(http.StatusOK, "image/jpeg", data)
	case errors.Is(err, errNotRaster):
		return c.Redirect(http.StatusFound, contentapi.AssetURL(a.API.ServerURL(), asset))
	case contentapi.StatusCode(err) == http.StatusNotFound:
		return echo.NewHTTPError(http.StatusNotFound)
	default:
		c.Logger().Errorf("media %s: %v", asset, err)
		return c.Redirect(http.StatusFound, contentapi.AssetURL(a.API.ServerURL(), asset))
	}
}
