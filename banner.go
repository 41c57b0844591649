package headlessblog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/eringen/headlessblog/post"
)

const (
	maxBannerWidth = 800
	jpegQuality    = 80
	maxBannerSize  = 10 << 20 // 10MB
)

// processBanner decodes an image from src, scales it down to maxBannerWidth
// if wider, and encodes it as JPEG.
func processBanner(src io.Reader) ([]byte, int, int, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxBannerWidth {
		newH := h * maxBannerWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxBannerWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = maxBannerWidth, newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), w, h, nil
}

// handleBanner serves a post's banner through the site so pages never hotlink
// the content service's CDN. Processed banners are kept in the store and
// rebuilt when the post points at a different image.
func (a *App) handleBanner(c echo.Context) error {
	slug := c.Param("slug")
	ctx := c.Request().Context()

	stored, serr := a.Store.GetBanner(slug)
	if serr != nil && !errors.Is(serr, ErrNotFound) {
		return serr
	}
	have := serr == nil

	doc, err := a.Cache.Document(ctx, slug)
	if err != nil {
		if have && !errors.Is(err, ErrNotFound) {
			return serveBanner(c, stored)
		}
		return err
	}
	src := post.MapDetail(doc).BannerURL
	if src == "" {
		return echo.ErrNotFound
	}
	if have && stored.SourceURL == src {
		return serveBanner(c, stored)
	}

	b, err := a.fetchBanner(ctx, slug, src)
	if err != nil {
		if have {
			c.Logger().Warnf("refresh banner %s: %v", slug, err)
			return serveBanner(c, stored)
		}
		return err
	}
	if err := a.Store.SaveBanner(b); err != nil {
		c.Logger().Warnf("store banner %s: %v", slug, err)
	}
	return serveBanner(c, b)
}

func (a *App) fetchBanner(ctx context.Context, uid, src string) (Banner, error) {
	u, err := url.Parse(src)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return Banner{}, fmt.Errorf("banner %s: unsupported url %q", uid, src)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Banner{}, err
	}
	resp, err := a.assetClient.Do(req)
	if err != nil {
		return Banner{}, fmt.Errorf("banner %s: %w", uid, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Banner{}, fmt.Errorf("banner %s: upstream status %d", uid, resp.StatusCode)
	}
	data, w, h, err := processBanner(io.LimitReader(resp.Body, maxBannerSize))
	if err != nil {
		return Banner{}, fmt.Errorf("banner %s: %w", uid, err)
	}
	return Banner{
		UID:       uid,
		SourceURL: src,
		JPEG:      data,
		Width:     w,
		Height:    h,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func serveBanner(c echo.Context, b Banner) error {
	c.Response().Header().Set("Last-Modified", b.CreatedAt.UTC().Format(http.TimeFormat))
	return c.Blob(http.StatusOK, "image/jpeg", b.JPEG)
}
