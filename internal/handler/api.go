package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/rcarmo/pixconv/internal/convert"
	"github.com/rcarmo/pixconv/internal/pixfmt"
	"github.com/rcarmo/pixconv/pkg/pixconv"
)

type formatInfo struct {
	Name             string `json:"name"`
	RGB              bool   `json:"rgb"`
	Planar           bool   `json:"planar"`
	BitDepth         int    `json:"bitDepth"`
	BytesPerPixelNum int    `json:"bytesPerPixelNum"`
	BytesPerPixelDen int    `json:"bytesPerPixelDen"`
	WidthMultiple    int    `json:"widthMultiple"`
	HeightMultiple   int    `json:"heightMultiple"`
	RowPixelMultiple int    `json:"rowPixelMultiple"`
}

// Formats lists every format with its layout metadata.
func (h *Handler) Formats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	out := make([]formatInfo, 0, pixfmt.FormatCount)
	for _, f := range pixfmt.All() {
		d := pixfmt.Describe(f)
		out = append(out, formatInfo{
			Name:             d.Name,
			RGB:              f.IsRGB(),
			Planar:           d.Planar,
			BitDepth:         d.BitDepth,
			BytesPerPixelNum: d.BytesPerPixelNum,
			BytesPerPixelDen: d.BytesPerPixelDen,
			WidthMultiple:    d.WidthMultiple,
			HeightMultiple:   d.HeightMultiple,
			RowPixelMultiple: d.RowPixelMultiple,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type candidateInfo struct {
	Name     string `json:"name"`
	Family   string `json:"family"`
	Requires string `json:"requires"`
	Priority int    `json:"priority"`
	Eligible bool   `json:"eligible"`
}

type routinesResponse struct {
	Request    string              `json:"request"`
	CPU        string              `json:"cpu"`
	Resolved   pixconv.RoutineInfo `json:"resolved"`
	SourceSize int                 `json:"sourceSize"`
	DestSize   int                 `json:"destSize"`
	Candidates []candidateInfo     `json:"candidates"`
}

// Routines reports the routine a query resolves to and every candidate
// for its format pair.
func (h *Handler) Routines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cfg, err := h.conversionParams(r, "src", "dst")
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := h.newConverter(cfg)
	if err != nil {
		writeError(w, err)
		return
	}

	req := convert.Request{
		Src: cfg.Source, Dst: cfg.Dest,
		Width: cfg.Width, Height: cfg.Height,
		Standard: cfg.Standard, Resampling: cfg.Resampling, Flags: cfg.Flags,
	}
	resp := routinesResponse{
		Request:    req.String(),
		CPU:        h.selector.Capabilities().String(),
		Resolved:   c.Routine(),
		SourceSize: c.SourceSize(),
		DestSize:   c.DestSize(),
	}
	for _, st := range h.selector.Candidates(req) {
		resp.Candidates = append(resp.Candidates, candidateInfo{
			Name:     st.Name,
			Family:   st.Family,
			Requires: st.Requires.String(),
			Priority: st.Priority,
			Eligible: st.Eligible,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// Convert converts the raw frame in the request body and answers with the
// raw destination frame.
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cfg, err := h.conversionParams(r, "src", "dst")
	if err != nil {
		writeError(w, err)
		return
	}
	c, err := h.newConverter(cfg)
	if err != nil {
		writeError(w, err)
		return
	}

	src, err := io.ReadAll(io.LimitReader(r.Body, int64(c.SourceSize())+1))
	if err != nil {
		writeError(w, fmt.Errorf("read body: %w", err))
		return
	}
	if len(src) != c.SourceSize() {
		writeError(w, fmt.Errorf("%w: body is not one %dx%d %s frame of %d bytes",
			errParam, cfg.Width, cfg.Height, cfg.Source, c.SourceSize()))
		return
	}

	dst := make([]byte, c.DestSize())
	c.Convert(src, dst)

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Pixconv-Routine", c.Routine().Name)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(dst); err != nil {
		logger.Warn("write frame: %v", err)
	}
}
