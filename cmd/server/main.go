package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rcarmo/pixconv/internal/config"
	"github.com/rcarmo/pixconv/internal/cpu"
	"github.com/rcarmo/pixconv/internal/handler"
	"github.com/rcarmo/pixconv/internal/logging"
	"github.com/rcarmo/pixconv/web"
)

const (
	appName    = "pixconv preview server"
	appVersion = "v0.3.0"
)

var logger = logging.Default().With("server")

type serverArgs struct {
	host     string
	port     string
	logLevel string
	standard string
	nnb      bool
	noSIMD   *bool
}

const (
	actionHelp    = "help"
	actionVersion = "version"
)

func parseFlags(args []string) (serverArgs, string, error) {
	fs := flag.NewFlagSet("pixconv-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	host := fs.String("host", "", "listen host")
	port := fs.String("port", "", "listen port")
	logLevel := fs.String("log-level", "", "log level (debug, info, warn, error)")
	standard := fs.String("standard", "", "default colorimetry (full, bt601, bt709)")
	nnb := fs.Bool("nnb", false, "default to nearest-neighbour chroma resampling")
	noSIMD := fs.Bool("no-simd", false, "resolve scalar routines only")
	help := fs.Bool("help", false, "show help")
	version := fs.Bool("version", false, "show version")

	if err := fs.Parse(args); err != nil {
		return serverArgs{}, "", err
	}

	out := serverArgs{
		host:     strings.TrimSpace(*host),
		port:     strings.TrimSpace(*port),
		logLevel: strings.TrimSpace(*logLevel),
		standard: strings.TrimSpace(*standard),
		nnb:      *nnb,
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "no-simd" {
			out.noSIMD = noSIMD
		}
	})

	switch {
	case *help:
		return out, actionHelp, nil
	case *version:
		return out, actionVersion, nil
	}
	return out, "", nil
}

func (a serverArgs) loadOptions() config.LoadOptions {
	opts := config.LoadOptions{
		Host:     a.host,
		Port:     a.port,
		LogLevel: a.logLevel,
		Standard: a.standard,
		NoSIMD:   a.noSIMD,
	}
	if a.nnb {
		opts.Resampling = "nnb"
	}
	return opts
}

func main() {
	args, action, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		showHelp(os.Stderr)
		os.Exit(2)
	}

	switch action {
	case actionHelp:
		showHelp(os.Stdout)
		return
	case actionVersion:
		showVersion(os.Stdout)
		return
	}

	cfg, err := config.LoadWithOverrides(args.loadOptions())
	if err != nil {
		logger.Error("failed to load config: %v", err)
		os.Exit(1)
	}

	setupLogging(cfg.Logging)

	server, err := createServer(cfg)
	if err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting server on %s (%s)", server.Addr, cpu.Describe())
	if err := startServer(ctx, server); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func createServer(cfg *config.Config) (*http.Server, error) {
	static, err := web.StaticFS()
	if err != nil {
		return nil, fmt.Errorf("load static assets: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.FS(static)))
	handler.New(cfg, nil).Register(mux)

	h := applySecurityMiddleware(mux, cfg)
	h = requestLoggingMiddleware(h)

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, nil
}

func applySecurityMiddleware(next http.Handler, cfg *config.Config) http.Handler {
	var origins []string
	if cfg != nil {
		origins = cfg.Security.AllowedOrigins
	}
	return securityHeadersMiddleware(corsMiddleware(next, origins))
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		// The preview page is a single inline script drawing to a canvas.
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; connect-src 'self' ws: wss:")

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowedOrigins []string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if isOriginAllowed(origin, allowedOrigins, r.Host) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Expose-Headers", "X-Pixconv-Routine")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// isOriginAllowed matches the configured list exactly; with no list only
// same-host origins get CORS headers.
func isOriginAllowed(origin string, allowedOrigins []string, host string) bool {
	if origin == "" {
		return false
	}

	for _, allowed := range allowedOrigins {
		if strings.TrimSpace(allowed) == origin {
			return true
		}
	}

	if len(allowedOrigins) == 0 {
		trimmed := strings.TrimPrefix(strings.TrimPrefix(origin, "http://"), "https://")
		return trimmed == host
	}

	return false
}

func setupLogging(cfg config.LoggingConfig) {
	logging.SetLevelFromString(cfg.Level)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

// Hijack passes the connection through for the preview WebSocket.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug("%s %s %s %d %s", r.RemoteAddr, r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// startServer serves until ctx is done, then shuts down gracefully.
func startServer(ctx context.Context, server *http.Server) error {
	if server == nil {
		return fmt.Errorf("server is nil")
	}

	errc := make(chan error, 1)
	go func() { errc <- server.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func showHelp(w io.Writer) {
	fmt.Fprintln(w, appName)
	fmt.Fprintln(w, "USAGE: pixconv-server [options]")
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprintln(w, "  -host        Set server listen host (default 0.0.0.0)")
	fmt.Fprintln(w, "  -port        Set server listen port (default 8080)")
	fmt.Fprintln(w, "  -log-level   Set log level (debug, info, warn, error)")
	fmt.Fprintln(w, "  -standard    Default colorimetry (full, bt601, bt709)")
	fmt.Fprintln(w, "  -nnb         Default to nearest-neighbour chroma resampling")
	fmt.Fprintln(w, "  -no-simd     Resolve scalar routines only")
	fmt.Fprintln(w, "  -version     Show version information")
	fmt.Fprintln(w, "  -help        Show this help message")
	fmt.Fprintln(w, "ENVIRONMENT VARIABLES: PIXCONV_HOST, PIXCONV_PORT, PIXCONV_LOG_LEVEL, PIXCONV_STANDARD,")
	fmt.Fprintln(w, "  PIXCONV_RESAMPLING, PIXCONV_NO_SIMD, PIXCONV_MAX_WIDTH, PIXCONV_MAX_HEIGHT,")
	fmt.Fprintln(w, "  PIXCONV_PREVIEW_FPS, PIXCONV_ALLOWED_ORIGINS, PIXCONV_MAX_CONNECTIONS")
	fmt.Fprintln(w, "EXAMPLES: pixconv-server -port 8080 -standard bt709")
}

func showVersion(w io.Writer) {
	fmt.Fprintf(w, "%s %s\n", appName, appVersion)
	fmt.Fprintf(w, "CPU: %s\n", cpu.Describe())
}
