package config

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gopkg.in/yaml.v3"

	"github.com/raywall/xrest/pkg/config/injector"
)

// --- Interfaces para Mocking ---

type S3Downloader interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type DynamoGetter interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// Loader carrega Settings de múltiplas fontes (arquivo local, S3, DynamoDB).
// Clientes nulos são criados sob demanda a partir da configuração padrão da AWS.
type Loader struct {
	S3       S3Downloader
	Dynamo   DynamoGetter
	Injector *injector.Injector

	validator *ConfigValidator
}

func NewLoader() *Loader {
	return &Loader{
		Injector:  injector.New(),
		validator: NewValidator(),
	}
}

// Load monta as Settings na ordem: defaults -> fonte YAML -> variáveis de
// ambiente -> placeholders ${...} -> validação. Fonte vazia usa apenas
// defaults e ambiente.
func (l *Loader) Load(ctx context.Context, source string) (*Settings, error) {
	cfg := Default()

	if source != "" {
		raw, err := l.read(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", source, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("config: malformed yaml in %s: %w", source, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	inj := l.Injector
	if inj == nil {
		inj = injector.New(injector.WithRegion(cfg.Database.Region))
	}
	if err := inj.Inject(ctx, cfg); err != nil {
		return nil, fmt.Errorf("config: inject: %w", err)
	}

	v := l.validator
	if v == nil {
		v = NewValidator()
	}
	if err := v.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

func (l *Loader) read(ctx context.Context, source string) ([]byte, error) {
	switch {
	case strings.HasPrefix(source, "s3://"):
		if l.S3 == nil {
			cfg, err := awsconfig.LoadDefaultConfig(ctx)
			if err != nil {
				return nil, err
			}
			l.S3 = s3.NewFromConfig(cfg)
		}
		return l.loadFromS3(ctx, source)

	case strings.HasPrefix(source, "dynamodb://"):
		if l.Dynamo == nil {
			cfg, err := awsconfig.LoadDefaultConfig(ctx)
			if err != nil {
				return nil, err
			}
			l.Dynamo = dynamodb.NewFromConfig(cfg)
		}
		return l.loadFromDynamoDB(ctx, source)

	default:
		// Suporta tanto "file://settings.yaml" quanto apenas "settings.yaml"
		return os.ReadFile(strings.TrimPrefix(source, "file://"))
	}
}

func (l *Loader) loadFromS3(ctx context.Context, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid s3 url: %w", err)
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")

	out, err := l.S3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

// loadFromDynamoDB lê dynamodb://tabela/chave?col=config&pk=id
func (l *Loader) loadFromDynamoDB(ctx context.Context, uri string) ([]byte, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid dynamodb url: %w", err)
	}

	tableName := u.Host
	pkValue := strings.TrimPrefix(u.Path, "/")

	colName := u.Query().Get("col")
	if colName == "" {
		colName = "config"
	}
	pkName := u.Query().Get("pk")
	if pkName == "" {
		pkName = "id"
	}

	out, err := l.Dynamo.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(tableName),
		Key: map[string]types.AttributeValue{
			pkName: &types.AttributeValueMemberS{Value: pkValue},
		},
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("item %s not found in table %s", pkValue, tableName)
	}

	var item map[string]any
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, err
	}

	content, ok := item[colName].(string)
	if !ok || content == "" {
		return nil, fmt.Errorf("column %q is missing or empty", colName)
	}
	return []byte(content), nil
}
