package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"

	"github.com/raywall/xrest/api"
	"github.com/raywall/xrest/examples/notes"
	"github.com/raywall/xrest/pkg/config"
	"github.com/raywall/xrest/pkg/logger"
	"github.com/raywall/xrest/pkg/metrics"
	"github.com/raywall/xrest/pkg/transport"
)

var (
	configSource string
	// Variáveis injetáveis para mocking
	serverStarter = func(ctx context.Context, srv *transport.Server) error { return srv.Run(ctx) }
	lambdaStarter = func(h *transport.LambdaHandler) { lambda.Start(h.Handle) }
)

func init() {
	configSource = os.Getenv("XREST_CONFIG")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Sem XREST_CONFIG as settings vêm apenas dos defaults e do ambiente.
	if err := run(ctx, configSource); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

// run contém a lógica principal testável
func run(ctx context.Context, source string) error {
	// 1. Settings
	loader := config.NewLoader()
	settings, err := loader.Load(ctx, source)
	if err != nil {
		return err
	}
	holder := config.NewHolder(loader, source, settings)

	// 2. Observabilidade
	log := logger.Configure(settings.Logging)
	provider, err := metrics.Setup(settings.Metrics)
	if err != nil {
		return err
	}
	if c, ok := provider.(interface{ Close() error }); ok {
		defer c.Close()
	}

	// 3. Persistência
	store, err := openStorage(ctx, settings.Database, log)
	if err != nil {
		return err
	}
	defer store.close()

	// 4. API
	authn := buildAuthenticator(holder, settings.Redis, log)
	notesView, err := notes.NewView(notes.Deps{
		Repository:    store.repo,
		Transactor:    store.tx,
		Authenticator: authn,
		Holder:        holder,
		Logger:        &log,
		Metrics:       provider,
	})
	if err != nil {
		return err
	}

	registry := api.New(api.Config{Prefix: settings.API.Prefix, Version: settings.API.Version})
	if err := registry.Register(notesView); err != nil {
		return err
	}
	for _, name := range registry.Routes() {
		log.Debug().Str("route", name).Msg("rota registrada")
	}
	handler := transport.Wrap(registry.Handler(), log, provider)

	// 5. Hot reload
	if settings.Server.ReloadQueue != "" {
		reloader, err := newReloader(ctx, settings, holder, provider, log)
		if err != nil {
			return err
		}
		go reloader.Start(ctx)
	}

	logStartup(log, settings)

	// 6. Seleciona Runtime Strategy
	switch settings.Server.Runtime {
	case "local":
		return serverStarter(ctx, transport.NewServer(settings.Server, handler, log))
	case "lambda":
		lambdaStarter(transport.NewLambdaHandler(handler))
		return nil
	default:
		return fmt.Errorf("runtime desconhecido: %s", settings.Server.Runtime)
	}
}

func logStartup(log zerolog.Logger, s *config.Settings) {
	log.Info().
		Str("runtime", s.Server.Runtime).
		Str("driver", s.Database.Driver).
		Str("prefix", s.API.Prefix).
		Str("version", s.API.Version).
		Msg("xrest iniciado")
}
