// Package handler serves the pixconv HTTP API and the WebSocket preview
// stream.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/rcarmo/pixconv/internal/config"
	"github.com/rcarmo/pixconv/internal/convert"
	"github.com/rcarmo/pixconv/internal/logging"
	"github.com/rcarmo/pixconv/pkg/pixconv"
)

var logger = logging.Default().With("handler")

// errParam marks request parameter problems; they map to 400.
var errParam = errors.New("bad parameter")

// Handler holds what every route needs: the loaded configuration and the
// selector conversions resolve against.
type Handler struct {
	cfg      *config.Config
	selector *convert.Selector
	streams  atomic.Int32
}

// New returns a handler over cfg. A nil selector uses the process-wide one.
func New(cfg *config.Config, selector *convert.Selector) *Handler {
	if selector == nil {
		selector = convert.Default()
	}
	return &Handler{cfg: cfg, selector: selector}
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/formats", h.Formats)
	mux.HandleFunc("/api/routines", h.Routines)
	mux.HandleFunc("/api/convert", h.Convert)
	mux.HandleFunc("/ws/preview", h.Preview)
}

// conversionParams reads src, dst, width, height, standard, nnb and
// no-simd from the query, falling back to the configured defaults.
func (h *Handler) conversionParams(r *http.Request, srcKey, dstKey string) (pixconv.Config, error) {
	q := r.URL.Query()
	std, res, flags := h.cfg.Conversion.Defaults()
	cfg := pixconv.Config{Standard: std, Resampling: res, Flags: flags}

	var err error
	if cfg.Source, err = pixconv.ParseFormat(q.Get(srcKey)); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", errParam, srcKey, err)
	}
	if cfg.Dest, err = pixconv.ParseFormat(q.Get(dstKey)); err != nil {
		return cfg, fmt.Errorf("%w: %s: %v", errParam, dstKey, err)
	}
	if cfg.Width, err = strconv.Atoi(q.Get("width")); err != nil {
		return cfg, fmt.Errorf("%w: width: %v", errParam, err)
	}
	if cfg.Height, err = strconv.Atoi(q.Get("height")); err != nil {
		return cfg, fmt.Errorf("%w: height: %v", errParam, err)
	}
	if !h.cfg.Conversion.AllowsSize(cfg.Width, cfg.Height) {
		return cfg, fmt.Errorf("%w: %dx%d exceeds %dx%d", errParam, cfg.Width, cfg.Height,
			h.cfg.Conversion.MaxWidth, h.cfg.Conversion.MaxHeight)
	}
	if s := q.Get("standard"); s != "" {
		if cfg.Standard, err = pixconv.ParseStandard(s); err != nil {
			return cfg, fmt.Errorf("%w: standard: %v", errParam, err)
		}
	}
	if b, ok, err := boolParam(q.Get("nnb")); err != nil {
		return cfg, fmt.Errorf("%w: nnb: %v", errParam, err)
	} else if ok && b {
		cfg.Resampling = pixconv.Nearest
	} else if ok {
		cfg.Resampling = pixconv.Average
	}
	if b, ok, err := boolParam(q.Get("no-simd")); err != nil {
		return cfg, fmt.Errorf("%w: no-simd: %v", errParam, err)
	} else if ok && b {
		cfg.Flags |= pixconv.NoSIMD
	}
	return cfg, nil
}

func boolParam(s string) (value, present bool, err error) {
	if s == "" {
		return false, false, nil
	}
	value, err = strconv.ParseBool(s)
	return value, err == nil, err
}

func (h *Handler) newConverter(cfg pixconv.Config) (*pixconv.Converter, error) {
	return pixconv.New(cfg, pixconv.WithSelector(h.selector))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errParam),
		errors.Is(err, pixconv.ErrUnsupportedPair),
		errors.Is(err, pixconv.ErrInvalidDimensions),
		errors.Is(err, pixconv.ErrOddDimensions),
		errors.Is(err, pixconv.ErrBufferTooSmall),
		errors.Is(err, pixconv.ErrUnknownStandard):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// isAllowedOrigin accepts any origin when no list is configured, loopback
// origins always, and otherwise origins whose host matches a listed entry
// written with or without a scheme.
func isAllowedOrigin(origin string, allowed []string) bool {
	if origin == "" || len(allowed) == 0 {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}

	for _, entry := range allowed {
		candidate := strings.TrimSpace(entry)
		if candidate == "" {
			continue
		}
		if candidate == origin || originHost(candidate) == u.Host {
			return true
		}
	}
	return false
}

// originHost returns the host and port of an allowed-origin entry.
func originHost(entry string) string {
	if !strings.Contains(entry, "://") {
		entry = "http://" + entry
	}
	u, err := url.Parse(entry)
	if err != nil {
		return ""
	}
	return u.Host
}
