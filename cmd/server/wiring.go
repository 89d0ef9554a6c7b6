package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/raywall/xrest/dyndb"
	"github.com/raywall/xrest/easyrepo"
	"github.com/raywall/xrest/examples/notes/models"
	"github.com/raywall/xrest/gormdb"
	"github.com/raywall/xrest/pkg/auth"
	"github.com/raywall/xrest/pkg/config"
	"github.com/raywall/xrest/pkg/metrics"
	"github.com/raywall/xrest/pkg/transport"
)

type storage struct {
	repo  easyrepo.Repository[models.Note]
	tx    easyrepo.Transactor
	close func()
}

// openStorage escolhe o repositório pelo driver configurado.
func openStorage(ctx context.Context, cfg config.DatabaseConf, log zerolog.Logger) (*storage, error) {
	switch cfg.Driver {
	case "dynamodb":
		awsCfg, err := loadAWS(ctx, cfg.Region)
		if err != nil {
			return nil, err
		}
		client := dynamodb.NewFromConfig(awsCfg)
		repo := dyndb.New[models.Note](client, dyndb.TableConfig{
			TableName: cfg.Table,
			HashKey:   "id",
			NewKey:    dyndb.NumericKey,
		})
		return &storage{repo: repo, tx: dyndb.NewTransactor(client), close: func() {}}, nil

	default:
		db, err := gormdb.Open(cfg, log)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(&models.Note{}); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &storage{
			repo:  gormdb.NewRepository[models.Note](db),
			tx:    db,
			close: func() { _ = db.Close() },
		}, nil
	}
}

// buildAuthenticator usa Basic e, com Redis configurado, aceita também tokens.
func buildAuthenticator(holder *config.Holder, cfg config.RedisConf, log zerolog.Logger) auth.Authenticator {
	basic := auth.BasicFromSettings(holder)
	if cfg.Addr == "" {
		return basic
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return auth.Chain(basic, auth.NewToken(client, cfg.TokenPrefix, log))
}

func newReloader(ctx context.Context, s *config.Settings, holder *config.Holder, provider metrics.Provider, log zerolog.Logger) (*transport.SQSReloader, error) {
	awsCfg, err := loadAWS(ctx, s.Database.Region)
	if err != nil {
		return nil, err
	}
	return transport.NewSQSReloader(sqs.NewFromConfig(awsCfg), s.Server.ReloadQueue, holder, provider, log), nil
}

func loadAWS(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("aws config: %w", err)
	}
	return cfg, nil
}
