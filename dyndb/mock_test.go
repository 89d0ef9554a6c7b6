package dyndb_test

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/stretchr/testify/mock"
)

// expectClient registra as chamadas com testify/mock, para os testes que
// precisam conferir os inputs enviados ao DynamoDB.
type expectClient struct {
	mock.Mock
}

func output[O any](args mock.Arguments) (*O, error) {
	out, _ := args.Get(0).(*O)
	return out, args.Error(1)
}

func (m *expectClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return output[dynamodb.GetItemOutput](m.Called(ctx, params))
}

func (m *expectClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	return output[dynamodb.PutItemOutput](m.Called(ctx, params))
}

func (m *expectClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	return output[dynamodb.DeleteItemOutput](m.Called(ctx, params))
}

func (m *expectClient) Scan(ctx context.Context, params *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	return output[dynamodb.ScanOutput](m.Called(ctx, params))
}

func (m *expectClient) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	return output[dynamodb.TransactWriteItemsOutput](m.Called(ctx, params))
}
