package dyndb

import (
	"context"
	"encoding/binary"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
)

// MaxTransactItems é o limite de operações por TransactWriteItems.
const MaxTransactItems = 100

// ErrTransactionTooLarge é retornado quando a unidade de trabalho excede MaxTransactItems.
var ErrTransactionTooLarge = errors.New("dyndb: transaction exceeds 100 writes")

// DynamoDBClient interface para abstrair o cliente DynamoDB
type DynamoDBClient interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// TableConfig: configuração da tabela
type TableConfig struct {
	TableName string `env:"DYNAMODB_TABLE_NAME"`
	HashKey   string `env:"DYNAMODB_HASH_KEY"`
	// TTLAttribute e TTL são opcionais; quando ambos estão definidos, itens
	// criados sem o atributo expiram após TTL.
	TTLAttribute string        `env:"DYNAMODB_TTL_ATTRIBUTE"`
	TTL          time.Duration `env:"DYNAMODB_TTL"`
	// NewKey gera a chave de itens criados sem chave. Padrão: UUIDKey.
	NewKey func() any
}

// UUIDKey gera uma chave UUID v4 em string.
func UUIDKey() any {
	return uuid.NewString()
}

// NumericKey gera uma chave inteira positiva de 53 bits a partir de um UUID,
// representável sem perda em JSON.
func NumericKey() any {
	u := uuid.New()
	return int64(binary.BigEndian.Uint64(u[:8]) >> 11)
}
