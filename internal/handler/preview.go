package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rcarmo/pixconv/internal/pattern"
	"github.com/rcarmo/pixconv/pkg/pixconv"
)

const (
	webSocketReadBufferSize  = 1024
	webSocketWriteBufferSize = 64 * 1024
	writeWait                = 5 * time.Second
)

// previewHeader is the first message of a preview stream.
type previewHeader struct {
	Type    string              `json:"type"`
	Width   int                 `json:"width"`
	Height  int                 `json:"height"`
	Source  string              `json:"source"`
	Via     string              `json:"via"`
	Pattern string              `json:"pattern"`
	FPS     int                 `json:"fps"`
	Forward pixconv.RoutineInfo `json:"forward"`
	Back    pixconv.RoutineInfo `json:"back"`
}

// previewStream renders src frames of a pattern, pushes them through via
// and back to ARGB, and hands out RGBA for a canvas.
type previewStream struct {
	header  previewHeader
	pattern pattern.Pattern
	fwd     *pixconv.Converter
	back    *pixconv.Converter
	src     []byte
	mid     []byte
	argb    []byte
	rgba    []byte
	frames  int
}

func (h *Handler) newPreviewStream(r *http.Request) (*previewStream, error) {
	q := r.URL.Query()
	if q.Get("src") == "" {
		q.Set("src", "argb")
	}
	if q.Get("via") == "" {
		q.Set("via", "yuyv")
	}
	r.URL.RawQuery = q.Encode()

	fwdCfg, err := h.conversionParams(r, "src", "via")
	if err != nil {
		return nil, err
	}
	pat, err := pattern.Parse(valueOr(q.Get("pattern"), "bars"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errParam, err)
	}
	fps := h.cfg.Conversion.PreviewFPS
	if s := q.Get("fps"); s != "" {
		if fps, err = strconv.Atoi(s); err != nil || fps < 1 || fps > 60 {
			return nil, fmt.Errorf("%w: fps must be 1..60", errParam)
		}
	}
	frames := 0
	if s := q.Get("frames"); s != "" {
		if frames, err = strconv.Atoi(s); err != nil || frames < 0 {
			return nil, fmt.Errorf("%w: frames must be a non-negative count", errParam)
		}
	}

	fwd, err := h.newConverter(fwdCfg)
	if err != nil {
		return nil, err
	}
	backCfg := fwdCfg
	backCfg.Source, backCfg.Dest = fwdCfg.Dest, pixconv.ARGB
	back, err := h.newConverter(backCfg)
	if err != nil {
		return nil, err
	}

	s := &previewStream{
		pattern: pat,
		fwd:     fwd,
		back:    back,
		src:     make([]byte, fwd.SourceSize()),
		mid:     make([]byte, fwd.DestSize()),
		argb:    make([]byte, back.DestSize()),
		rgba:    make([]byte, fwdCfg.Width*fwdCfg.Height*4),
		frames:  frames,
		header: previewHeader{
			Type:    "header",
			Width:   fwdCfg.Width,
			Height:  fwdCfg.Height,
			Source:  fwdCfg.Source.String(),
			Via:     fwdCfg.Dest.String(),
			Pattern: pat.String(),
			FPS:     fps,
			Forward: fwd.Routine(),
			Back:    back.Routine(),
		},
	}
	return s, nil
}

func valueOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// render produces frame n as RGBA. Random patterns reseed per frame so the
// stream moves; the others are static.
func (s *previewStream) render(n int) ([]byte, error) {
	p := s.pattern
	if p.Kind == pattern.Random {
		p.Seed += int64(n)
	}
	cfg := s.fwd.Config()
	if err := pattern.Fill(cfg.Source, s.src, cfg.Width, cfg.Height, p, cfg.Standard); err != nil {
		return nil, err
	}
	s.fwd.Convert(s.src, s.mid)
	s.back.Convert(s.mid, s.argb)
	for i := 0; i < len(s.argb); i += 4 {
		s.rgba[i], s.rgba[i+1], s.rgba[i+2], s.rgba[i+3] = s.argb[i+1], s.argb[i+2], s.argb[i+3], 0xff
	}
	return s.rgba, nil
}

// Preview upgrades to a WebSocket and streams converted frames. Parameters
// are validated before the upgrade so mistakes come back as HTTP 400.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	stream, err := h.newPreviewStream(r)
	if err != nil {
		writeError(w, err)
		return
	}

	limit := int32(h.cfg.Security.MaxConnections)
	if h.streams.Add(1) > limit {
		h.streams.Add(-1)
		http.Error(w, "too many preview streams", http.StatusServiceUnavailable)
		return
	}
	defer h.streams.Add(-1)

	upgrader := websocket.Upgrader{
		ReadBufferSize:  webSocketReadBufferSize,
		WriteBufferSize: webSocketWriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return isAllowedOrigin(r.Header.Get("Origin"), h.cfg.Security.AllowedOrigins)
		},
	}
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("upgrade websocket: %v", err)
		return
	}
	defer func() {
		if err := wsConn.Close(); err != nil {
			logger.Debug("close websocket: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go drain(ctx, wsConn, cancel)

	logger.Info("preview %s -> %s -> ARGB %dx%d via %s", stream.header.Source, stream.header.Via,
		stream.header.Width, stream.header.Height, stream.header.Forward.Name)
	if err := stream.run(ctx, wsConn); err != nil {
		logger.Warn("preview stream: %v", err)
	}
}

// drain reads until the peer goes away; the stream only sends.
func drain(ctx context.Context, wsConn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for ctx.Err() == nil {
		if _, _, err := wsConn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *previewStream) run(ctx context.Context, wsConn *websocket.Conn) error {
	header, err := json.Marshal(s.header)
	if err != nil {
		return err
	}
	if err := send(wsConn, websocket.TextMessage, header); err != nil {
		return fmt.Errorf("send header: %w", err)
	}

	ticker := time.NewTicker(time.Second / time.Duration(s.header.FPS))
	defer ticker.Stop()
	for n := 0; s.frames == 0 || n < s.frames; n++ {
		frame, err := s.render(n)
		if err != nil {
			return err
		}
		if err := send(wsConn, websocket.BinaryMessage, frame); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("send frame %d: %w", n, err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done")
	return wsConn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

func send(wsConn *websocket.Conn, kind int, data []byte) error {
	if err := wsConn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return wsConn.WriteMessage(kind, data)
}
