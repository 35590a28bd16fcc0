// Package api provides the HTTP handlers for the search, resolution, and
// sheet endpoints. Every endpoint is a plain GET so constrained clients can
// drive the whole surface with image loads and redirects.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/aliciarogers01/vrchat-yts-backend/pkg/interfaces"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/logging"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/providers"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/services"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/session"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/types"
	"github.com/aliciarogers01/vrchat-yts-backend/pkg/ytutil"
)

// Results per page on the index-addressed resolution path.
const resolvePageSize = 10

// Handlers contains all API handlers.
type Handlers struct {
	log      *logging.Logger
	search   *services.SearchService
	resolver *services.Resolver
	sheets   *services.SheetService
	mirror   *providers.MirrorProvider
	session  *session.Store
	client   interfaces.HTTPClient
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(log *logging.Logger, search *services.SearchService,
	resolver *services.Resolver, sheets *services.SheetService,
	mirror *providers.MirrorProvider, sess *session.Store, client interfaces.HTTPClient) *Handlers {
	return &Handlers{
		log:      log.WithComponent("api"),
		search:   search,
		resolver: resolver,
		sheets:   sheets,
		mirror:   mirror,
		session:  sess,
		client:   client,
	}
}

// RegisterRoutes registers all API routes.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("GET /healthz", h.handleHealthz)

	mux.HandleFunc("GET /search", h.handleSearch)
	mux.HandleFunc("GET /search_debug", h.handleSearchDebug)
	mux.HandleFunc("GET /thumb", h.handleThumb)
	mux.HandleFunc("GET /resolve", h.handleResolve)
	mux.HandleFunc("GET /resolve_index", h.handleResolveIndex)

	mux.HandleFunc("GET /search_grid", h.handleSearchGrid)
	mux.HandleFunc("GET /search_grid_thumb", h.handleSearchGridThumb)
	mux.HandleFunc("GET /update_sheet", h.handleUpdateSheet)
	mux.HandleFunc("GET /sheet.png", h.handleSheetPNG)
}

var endpointList = []string{
	"/search", "/search_debug", "/thumb", "/resolve", "/resolve_index",
	"/search_grid", "/search_grid_thumb", "/update_sheet", "/sheet.png",
	"/healthz",
}

func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"endpoints": endpointList,
	})
}

func (h *Handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleSearch answers a keyword search as JSON.
func (h *Handlers) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if shortQuery(query) {
		h.writeError(w, http.StatusBadRequest, "missing or short q")
		return
	}
	maxResults := clamp(queryInt(r, "max_results", 10), 1, 25)

	records, err := h.search.ListResults(r.Context(), query, 0, maxResults)
	if err != nil {
		h.writeSearchError(w, query, err)
		return
	}
	if len(records) > maxResults {
		records = records[:maxResults]
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"results": records})
}

func (h *Handlers) writeSearchError(w http.ResponseWriter, query string, err error) {
	h.log.Error("search failed", "query", query, "error", err)
	if errors.Is(err, types.ErrMissingCredential) {
		h.writeError(w, http.StatusInternalServerError, types.ErrMissingCredential.Error())
		return
	}
	h.writeError(w, http.StatusBadGateway, types.ErrUpstreamUnavailable.Error())
}

// handleSearchDebug reports which upstream source answered a query, with the
// per-mirror attempt ledger on the mirror path. It never fails.
func (h *Handlers) handleSearchDebug(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query != "" && shortQuery(query) {
		h.writeError(w, http.StatusBadRequest, "missing or short q")
		return
	}
	if query == "" {
		query = h.session.Snapshot().Query
	}
	maxResults := clamp(queryInt(r, "max_results", 10), 1, 25)

	records, err := h.search.ListResults(r.Context(), query, 0, maxResults)
	if err == nil && len(records) > 0 {
		h.writeJSON(w, http.StatusOK, map[string]any{
			"ok":     true,
			"source": "api",
			"count":  len(records),
			"sample": sample(records),
		})
		return
	}

	mirrorRecords, attempts := h.mirror.SearchDebug(r.Context(), query, maxResults)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"ok":     len(mirrorRecords) > 0,
		"source": "mirror",
		"count":  len(mirrorRecords),
		"sample": sample(mirrorRecords),
		"tried":  attempts,
	})
}

func sample(records []types.ResultRecord) any {
	if len(records) == 0 {
		return nil
	}
	return records[0]
}

// handleThumb serves or redirects to a single video thumbnail.
func (h *Handlers) handleThumb(w http.ResponseWriter, r *http.Request) {
	id, err := ytutil.ExtractVideoID(r.URL.Query().Get("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "missing or invalid id")
		return
	}

	thumbURL := ytutil.ThumbnailURL(id, r.URL.Query().Get("quality"))
	if r.URL.Query().Get("mode") == "redirect" {
		http.Redirect(w, r, thumbURL, http.StatusFound)
		return
	}

	h.proxyImage(r.Context(), w, thumbURL, "public, max-age=3600")
}

// handleResolve returns the direct media URL for a video ID. Content gates
// (live, too long, nothing playable) come back as soft errors in a 200 body
// so the polling client can distinguish them from transport trouble.
func (h *Handlers) handleResolve(w http.ResponseWriter, r *http.Request) {
	id, err := ytutil.ExtractVideoID(r.URL.Query().Get("id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "missing or invalid id")
		return
	}

	media, err := h.resolver.Resolve(r.Context(), id, r.URL.Query().Get("prefer"))
	if err != nil {
		switch {
		case errors.Is(err, types.ErrLiveUnsupported),
			errors.Is(err, types.ErrTooLong),
			errors.Is(err, types.ErrNoPlayableURL):
			h.writeJSON(w, http.StatusOK, map[string]string{"error": softCode(err)})
		default:
			h.log.Error("resolve failed", "video_id", id, "error", err)
			h.writeError(w, http.StatusBadGateway, "resolve_failed")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, media)
}

func softCode(err error) string {
	switch {
	case errors.Is(err, types.ErrLiveUnsupported):
		return types.ErrLiveUnsupported.Error()
	case errors.Is(err, types.ErrTooLong):
		return types.ErrTooLong.Error()
	default:
		return types.ErrNoPlayableURL.Error()
	}
}

// handleResolveIndex resolves the i-th result of a search page and redirects
// to its media URL, so a client that can only follow a URL it composed
// itself still reaches playable media.
func (h *Handlers) handleResolveIndex(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if shortQuery(query) {
		h.writeError(w, http.StatusBadRequest, "missing or short q")
		return
	}
	pageIndex := queryInt(r, "page", 0)
	index := queryInt(r, "i", 0)

	records, err := h.search.ListResults(r.Context(), query, pageIndex, resolvePageSize)
	if err != nil {
		h.writeSearchError(w, query, err)
		return
	}

	page := services.Page(records, pageIndex, resolvePageSize)
	if index < 0 || index >= len(page) {
		h.writeError(w, http.StatusNotFound, types.ErrIndexOutOfRange.Error())
		return
	}

	media, err := h.resolver.Resolve(r.Context(), page[index].ID, r.URL.Query().Get("prefer"))
	if err != nil {
		h.log.Error("indexed resolve failed", "video_id", page[index].ID, "error", err)
		h.writeError(w, http.StatusBadGateway, types.ErrNoPlayableURL.Error())
		return
	}

	http.Redirect(w, r, media.URL, http.StatusFound)
}

// handleSearchGrid renders the annotated debug grid for a result page.
// Explicit params are merged into the session before use, so the next
// parameterless poll continues from the same place.
func (h *Handlers) handleSearchGrid(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" && shortQuery(q) {
		h.writeError(w, http.StatusBadRequest, "missing or short q")
		return
	}
	st := h.session.Merge(session.Params{
		Query:     optString(r, "q"),
		PageIndex: optInt(r, "page"),
	})

	records, err := h.search.ListResults(r.Context(), st.Query, st.PageIndex, resolvePageSize)
	if err != nil {
		h.writeSearchError(w, st.Query, err)
		return
	}

	buf, err := services.BuildDebugSheet(records, st.PageIndex)
	if err != nil {
		h.writeError(w, http.StatusNotFound, types.ErrInsufficientResults.Error())
		return
	}

	h.writePNG(w, buf, "no-store")
}

// handleSearchGridThumb serves one cell of a result grid as a standalone
// thumbnail, addressed by page-relative index. Like the grid endpoints it
// merges explicit query, page, and shape params into the session.
func (h *Handlers) handleSearchGridThumb(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" && shortQuery(q) {
		h.writeError(w, http.StatusBadRequest, "missing or short q")
		return
	}
	st := h.session.Merge(session.Params{
		Query:     optString(r, "q"),
		PageIndex: optInt(r, "page"),
		Cols:      optInt(r, "cols"),
		Rows:      optInt(r, "rows"),
	})
	index := queryInt(r, "i", 0)

	per := st.Cols * st.Rows
	records, err := h.search.ListResults(r.Context(), st.Query, st.PageIndex, per)
	if err != nil {
		h.writeSearchError(w, st.Query, err)
		return
	}

	page := services.Page(records, st.PageIndex, per)
	if index < 0 || index >= len(page) {
		h.writeError(w, http.StatusNotFound, types.ErrIndexOutOfRange.Error())
		return
	}

	thumbURL := ytutil.ThumbnailURL(page[index].ID, r.URL.Query().Get("quality"))
	if r.URL.Query().Get("mode") == "redirect" {
		http.Redirect(w, r, thumbURL, http.StatusFound)
		return
	}

	h.proxyImage(r.Context(), w, thumbURL, "public, max-age=900")
}

// handleUpdateSheet merges any provided parameters into the session and
// rebuilds the cached sheet. The success body is always the placeholder;
// the caller reads the rebuilt sheet from /sheet.png.
func (h *Handlers) handleUpdateSheet(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" && shortQuery(q) {
		h.writeError(w, http.StatusBadRequest, "missing or short q")
		return
	}
	h.session.Merge(session.Params{
		Query:     optString(r, "q"),
		PageIndex: optInt(r, "page"),
		Cols:      optInt(r, "cols"),
		Rows:      optInt(r, "rows"),
	})

	if err := h.sheets.Rebuild(r.Context()); err != nil {
		h.log.Error("sheet rebuild failed", "error", err)
		switch {
		case errors.Is(err, types.ErrInsufficientResults):
			h.writeError(w, http.StatusNotFound, types.ErrInsufficientResults.Error())
		case errors.Is(err, types.ErrMissingCredential):
			h.writeError(w, http.StatusInternalServerError, types.ErrMissingCredential.Error())
		default:
			h.writeError(w, http.StatusBadGateway, types.ErrUpstreamUnavailable.Error())
		}
		return
	}

	h.writePNG(w, services.PlaceholderPNG(), "no-store")
}

// handleSheetPNG serves the cached sheet. This path never fails: with no
// cache it builds once, and on failure it degrades to the placeholder.
func (h *Handlers) handleSheetPNG(w http.ResponseWriter, r *http.Request) {
	buf, st := h.sheets.Cached(r.Context())

	w.Header().Set("X-Sheet-Query", st.Query)
	w.Header().Set("X-Sheet-Cols", strconv.Itoa(st.Cols))
	w.Header().Set("X-Sheet-Rows", strconv.Itoa(st.Rows))
	w.Header().Set("X-Sheet-Page", strconv.Itoa(st.PageIndex))
	h.writePNG(w, buf, "no-store")
}

// Helper methods

func (h *Handlers) proxyImage(ctx context.Context, w http.ResponseWriter, urlStr, cacheControl string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		h.writeError(w, http.StatusBadGateway, "thumb_fetch_failed")
		return
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := h.client.Do(req)
	if err != nil {
		h.log.Error("thumbnail fetch failed", "url", urlStr, "error", err)
		h.writeError(w, http.StatusBadGateway, "thumb_fetch_failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		h.writeError(w, http.StatusBadGateway, "thumb_fetch_failed")
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", cacheControl)
	io.Copy(w, resp.Body)
}

func (h *Handlers) writePNG(w http.ResponseWriter, buf []byte, cacheControl string) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", cacheControl)
	w.Header().Set("Content-Length", strconv.Itoa(len(buf)))
	w.Write(buf)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func queryInt(r *http.Request, name string, defaultVal int) int {
	if val := r.URL.Query().Get(name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func optInt(r *http.Request, name string) *int {
	if val := r.URL.Query().Get(name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return &i
		}
	}
	return nil
}

func optString(r *http.Request, name string) *string {
	if val := r.URL.Query().Get(name); val != "" {
		return &val
	}
	return nil
}

// shortQuery reports whether q is below the two-character search minimum.
func shortQuery(q string) bool {
	return utf8.RuneCountInString(q) < 2
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
