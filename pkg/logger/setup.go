package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/raywall/xrest/pkg/config"
)

// Configure inicializa o logger global baseando-se nas settings e o grava
// em stdout.
func Configure(cfg config.LoggingConf) zerolog.Logger {
	return New(cfg, os.Stdout)
}

// New cria o logger escrevendo em out. Também o registra como logger padrão
// de zerolog.Ctx, usado quando a requisição ainda não tem logger próprio.
func New(cfg config.LoggingConf, out io.Writer) zerolog.Logger {
	// Define o nível de log (default: info)
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// JSON para produção, Console "bonito" para local se solicitado
	output := out
	if !cfg.Enabled {
		output = io.Discard
	} else if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(output).
		With().
		Timestamp().
		Str("service", "xrest").
		Logger()

	zerolog.DefaultContextLogger = &logger
	return logger
}
