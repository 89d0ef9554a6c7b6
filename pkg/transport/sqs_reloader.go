package transport

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog"

	"github.com/raywall/xrest/pkg/metrics"
)

// SQSClient define a interface necessária para o reloader (permite Mocking)
type SQSClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Reloader recarrega as settings. *config.Holder satisfaz a interface.
type Reloader interface {
	Reload(ctx context.Context) error
}

// SQSReloader gerencia o loop de verificação do SQS
type SQSReloader struct {
	client     SQSClient
	queueUrl   string
	reloader   Reloader
	metrics    metrics.Provider
	logger     zerolog.Logger
	retryDelay time.Duration
}

// NewSQSReloader cria uma nova instância do reloader
func NewSQSReloader(client SQSClient, queueUrl string, reloader Reloader, provider metrics.Provider, logger zerolog.Logger) *SQSReloader {
	if provider == nil {
		provider = &metrics.NoopProvider{}
	}
	return &SQSReloader{
		client:     client,
		queueUrl:   queueUrl,
		reloader:   reloader,
		metrics:    provider,
		logger:     logger.With().Str("component", "sqs_reloader").Logger(),
		retryDelay: 5 * time.Second,
	}
}

// Start inicia o monitoramento (bloqueante)
func (s *SQSReloader) Start(ctx context.Context) {
	if s.queueUrl == "" {
		s.logger.Warn().Msg("URL da fila SQS não configurada. Hot Reload desativado.")
		return
	}

	s.logger.Info().Str("queue", s.queueUrl).Msg("Monitorando fila SQS para reload das settings")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Parando monitoramento SQS")
			return
		default:
		}

		out, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(s.queueUrl),
			MaxNumberOfMessages: 1,
			WaitTimeSeconds:     20, // Long polling
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.logger.Error().Err(err).Dur("retry_in", s.retryDelay).Msg("Erro no SQS")
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.retryDelay):
			}
			continue
		}

		for _, msg := range out.Messages {
			s.handle(ctx, msg.ReceiptHandle)
		}
	}
}

func (s *SQSReloader) handle(ctx context.Context, receipt *string) {
	s.logger.Info().Msg("Evento de alteração recebido via SQS")

	status := "ok"
	if err := s.reloader.Reload(ctx); err != nil {
		status = "error"
		s.logger.Error().Err(err).Msg("Falha no reload, settings anteriores mantidas")
	} else {
		s.logger.Info().Msg("Settings recarregadas")
	}
	_ = s.metrics.Count(metrics.ReloadCount, 1, []string{"status:" + status})

	if _, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(s.queueUrl),
		ReceiptHandle: receipt,
	}); err != nil {
		s.logger.Warn().Err(err).Msg("Falha ao remover mensagem da fila")
	}
}
