package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/raywall/xrest/pkg/config"
	"github.com/raywall/xrest/pkg/metrics"
	"github.com/raywall/xrest/pkg/responder"
)

const (
	HeaderCorrelationID = "x-correlation-id"
	HeaderLatency       = "x-latency-ms"
	ContextKeyCorrID    = "correlation_id"
)

type ctxKey string

// CorrelationID retorna o correlation id gravado pelo middleware de observabilidade.
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey(ContextKeyCorrID)).(string)
	return id
}

// Server expõe um http.Handler com shutdown gracioso.
type Server struct {
	srv             *http.Server
	logger          zerolog.Logger
	shutdownTimeout time.Duration
}

// NewServer cria o servidor para a porta e o timeout de shutdown configurados.
func NewServer(cfg config.ServerConf, handler http.Handler, logger zerolog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger:          logger.With().Str("component", "http_server").Logger(),
		shutdownTimeout: cfg.GetShutdownTimeout(),
	}
}

// Handler retorna o handler servido.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run abre o listener e serve até ctx ser cancelado.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("transport: listen %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve atende conexões de ln até ctx ser cancelado, depois espera as
// requisições em andamento por até o timeout de shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("Servidor HTTP ouvindo")
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("transport: serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.logger.Info().Dur("timeout", s.shutdownTimeout).Msg("Encerrando servidor HTTP")
		return s.srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// --- MIDDLEWARES ---

type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode  int
	startTime   time.Time
	wroteHeader bool
}

func (rw *responseWriterWrapper) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	duration := time.Since(rw.startTime)
	rw.Header().Set(HeaderLatency, strconv.FormatInt(duration.Milliseconds(), 10))
	rw.ResponseWriter.WriteHeader(code)
	rw.wroteHeader = true
}

func (rw *responseWriterWrapper) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// ObservabilityMiddleware grava o correlation id, o header de latência, a
// linha de log da requisição e as métricas http.request.
func ObservabilityMiddleware(logger zerolog.Logger, provider metrics.Provider) func(http.Handler) http.Handler {
	if provider == nil {
		provider = &metrics.NoopProvider{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			corrID := r.Header.Get(HeaderCorrelationID)
			if corrID == "" {
				corrID = uuid.NewString()
			}
			w.Header().Set(HeaderCorrelationID, corrID)

			reqLogger := logger.With().Str("correlation_id", corrID).Logger()
			ctx := reqLogger.WithContext(r.Context())
			ctx = context.WithValue(ctx, ctxKey(ContextKeyCorrID), corrID)

			wrapper := &responseWriterWrapper{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				startTime:      start,
			}

			next.ServeHTTP(wrapper, r.WithContext(ctx))

			latency := time.Since(start).Milliseconds()
			tags := []string{
				"method:" + r.Method,
				"status:" + strconv.Itoa(wrapper.statusCode),
			}
			_ = provider.Count(metrics.RequestCount, 1, tags)
			_ = provider.Histogram(metrics.RequestLatencyMs, float64(latency), tags)

			reqLogger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", wrapper.statusCode).
				Int64("latency_ms", latency).
				Msg("request completed")
		})
	}
}

// RecoveryMiddleware converte um panic do handler em um envelope 500.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			zerolog.Ctx(r.Context()).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic while serving request")
			_ = responder.Write(w, responder.InternalError())
		}()
		next.ServeHTTP(w, r)
	})
}

// Wrap aplica a cadeia padrão de middlewares ao handler.
func Wrap(h http.Handler, logger zerolog.Logger, provider metrics.Provider) http.Handler {
	return ObservabilityMiddleware(logger, provider)(RecoveryMiddleware(h))
}
