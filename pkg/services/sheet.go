package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"sync"
	"time"

	_ "image/gif"
	_ "image/jpeg"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/aliciarogers01/vrchat-yts-backend/pkg/interfaces"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/logging"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/session"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/types"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/ytutil"
)

// Concurrent thumbnail fetches per sheet build.
const thumbFetchConcurrency = 4

// SheetService composites search-result thumbnails into a single grid image
// and maintains the session's cached copy.
type SheetService struct {
	search  *SearchService
	client  interfaces.HTTPClient
	session *session.Store
	log     *logging.Logger
}

// NewSheetService creates the sheet compositor.
func NewSheetService(search *SearchService, client interfaces.HTTPClient, sess *session.Store, log *logging.Logger) *SheetService {
	return &SheetService{
		search:  search,
		client:  client,
		session: sess,
		log:     log.WithComponent("sheet"),
	}
}

// Rebuild composites a fresh sheet from the current session state and, on
// success, replaces the session's cached buffer.
func (s *SheetService) Rebuild(ctx context.Context) error {
	st := s.session.Snapshot()

	records, err := s.search.ListResults(ctx, st.Query, st.PageIndex, st.Cols*st.Rows)
	if err != nil {
		return err
	}

	buf, err := s.BuildSheet(ctx, records, st.Cols, st.Rows, st.PageIndex)
	if err != nil {
		return err
	}

	s.session.SetSheet(buf, time.Now())
	s.log.Info("sheet rebuilt", "query", st.Query, "page", st.PageIndex, "bytes", len(buf))
	return nil
}

// Cached returns the session's sheet buffer, building it once if absent.
// It never fails: when the build fails the placeholder is returned along
// with the state it was attempted for.
func (s *SheetService) Cached(ctx context.Context) ([]byte, session.State) {
	st := s.session.Snapshot()
	if len(st.Sheet) > 0 {
		return st.Sheet, st
	}

	if err := s.Rebuild(ctx); err != nil {
		s.log.Warn("lazy sheet build failed, serving placeholder", "error", err)
		return PlaceholderPNG(), st
	}
	return s.session.Snapshot().Sheet, st
}

// BuildSheet fetches the thumbnails for one page of records and composites
// them into a cols x rows PNG, left to right, top to bottom. Every tile is
// resampled to the first tile's dimensions. A page with fewer than cols*rows
// records is rejected with types.ErrInsufficientResults before any fetch.
func (s *SheetService) BuildSheet(ctx context.Context, records []types.ResultRecord, cols, rows, pageIndex int) ([]byte, error) {
	per := cols * rows
	page := Page(records, pageIndex, per)
	if len(page) < per {
		return nil, fmt.Errorf("%w: page %d has %d of %d tiles", types.ErrInsufficientResults, pageIndex, len(page), per)
	}

	tiles := make([]image.Image, per)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(thumbFetchConcurrency)
	for i, rec := range page {
		g.Go(func() error {
			img, err := s.fetchThumbnail(gctx, rec)
			if err != nil {
				return fmt.Errorf("%w: thumbnail %s: %v", types.ErrUpstreamUnavailable, rec.ID, err)
			}
			tiles[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return composite(tiles, cols, rows)
}

func (s *SheetService) fetchThumbnail(ctx context.Context, rec types.ResultRecord) (image.Image, error) {
	urlStr := rec.ThumbnailURL
	if urlStr == "" {
		urlStr = ytutil.ThumbnailURL(rec.ID, "mq")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	return img, err
}

// composite lays the tiles into a grid, normalizing each to the first
// tile's dimensions.
func composite(tiles []image.Image, cols, rows int) ([]byte, error) {
	tileW := tiles[0].Bounds().Dx()
	tileH := tiles[0].Bounds().Dy()

	canvas := image.NewRGBA(image.Rect(0, 0, cols*tileW, rows*tileH))
	for i, tile := range tiles {
		x := (i % cols) * tileW
		y := (i / cols) * tileH
		cell := image.Rect(x, y, x+tileW, y+tileH)

		if tile.Bounds().Dx() == tileW && tile.Bounds().Dy() == tileH {
			xdraw.Draw(canvas, cell, tile, tile.Bounds().Min, xdraw.Src)
		} else {
			xdraw.ApproxBiLinear.Scale(canvas, cell, tile, tile.Bounds(), xdraw.Src, nil)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const (
	debugCols  = 2
	debugRows  = 5
	debugCellW = 640
	debugCellH = 360
	debugPad   = 20
)

// BuildDebugSheet renders a fixed 2x5 annotated grid for one page of
// records: cell outlines, flat result indices, and truncated titles on a
// dark canvas. No thumbnails are fetched.
func BuildDebugSheet(records []types.ResultRecord, pageIndex int) ([]byte, error) {
	per := debugCols * debugRows
	page := Page(records, pageIndex, per)
	if len(page) == 0 {
		return nil, types.ErrInsufficientResults
	}

	width := debugCols*debugCellW + (debugCols+1)*debugPad
	height := debugRows*debugCellH + (debugRows+1)*debugPad
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))

	background := color.RGBA{R: 18, G: 18, B: 24, A: 255}
	cellFill := color.RGBA{R: 32, G: 32, B: 42, A: 255}
	outline := color.RGBA{R: 90, G: 90, B: 110, A: 255}
	badgeFill := color.RGBA{R: 200, G: 60, B: 60, A: 255}
	textColor := color.RGBA{R: 230, G: 230, B: 235, A: 255}

	fillRect(canvas, canvas.Bounds(), background)

	for i, rec := range page {
		x := debugPad + (i%debugCols)*(debugCellW+debugPad)
		y := debugPad + (i/debugCols)*(debugCellH+debugPad)
		cell := image.Rect(x, y, x+debugCellW, y+debugCellH)

		fillRect(canvas, cell, cellFill)
		strokeRect(canvas, cell, outline)

		badge := image.Rect(x, y, x+56, y+28)
		fillRect(canvas, badge, badgeFill)
		flatIndex := pageIndex*per + i
		drawText(canvas, fmt.Sprintf("#%d", flatIndex), x+8, y+19, textColor)

		drawText(canvas, truncateTitle(rec.Title, 60), x+8, y+48, textColor)
		drawText(canvas, rec.ID, x+8, y+debugCellH-12, outline)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var (
	placeholderOnce sync.Once
	placeholderBuf  []byte
)

// PlaceholderPNG returns a 1x1 PNG, the universal "nothing to show yet"
// answer for image endpoints that must not fail.
func PlaceholderPNG() []byte {
	placeholderOnce.Do(func() {
		img := image.NewRGBA(image.Rect(0, 0, 1, 1))
		img.Set(0, 0, color.RGBA{R: 18, G: 18, B: 24, A: 255})
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			panic(err)
		}
		placeholderBuf = buf.Bytes()
	})
	return placeholderBuf
}

func fillRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	xdraw.Draw(img, r, image.NewUniform(c), image.Point{}, xdraw.Src)
}

func strokeRect(img *image.RGBA, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}

func drawText(img *image.RGBA, text string, x, y int, c color.Color) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func truncateTitle(title string, max int) string {
	runes := []rune(title)
	if len(runes) <= max {
		return title
	}
	return string(runes[:max]) + "..."
}
