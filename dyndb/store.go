package dyndb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/raywall/xrest/easyrepo"
)

// Repository implementa easyrepo.Repository para uma tabela DynamoDB.
type Repository[T any] struct {
	client DynamoDBClient
	cfg    TableConfig
}

// New cria um repositório reutilizável
func New[T any](client DynamoDBClient, cfg TableConfig) *Repository[T] {
	if cfg.NewKey == nil {
		cfg.NewKey = UUIDKey
	}
	return &Repository[T]{client: client, cfg: cfg}
}

// Count soma o Select=COUNT de todas as páginas do Scan.
func (r *Repository[T]) Count(ctx context.Context) (int, error) {
	total := 0
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.cfg.TableName),
			Select:            types.SelectCount,
			ExclusiveStartKey: startKey,
			ConsistentRead:    aws.Bool(true),
		})
		if err != nil {
			return 0, fmt.Errorf("dyndb: count failed: %w", err)
		}
		total += int(out.Count)
		if len(out.LastEvaluatedKey) == 0 {
			return total, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// List lê a tabela inteira, ordena pela chave de partição e aplica offset/limit.
func (r *Repository[T]) List(ctx context.Context, offset, limit int) ([]*T, error) {
	var raw []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.cfg.TableName),
			ExclusiveStartKey: startKey,
			ConsistentRead:    aws.Bool(true),
		})
		if err != nil {
			return nil, fmt.Errorf("dyndb: scan failed: %w", err)
		}
		raw = append(raw, out.Items...)
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		startKey = out.LastEvaluatedKey
	}

	sort.SliceStable(raw, func(i, j int) bool {
		return lessAttr(raw[i][r.cfg.HashKey], raw[j][r.cfg.HashKey])
	})

	if offset >= len(raw) {
		return []*T{}, nil
	}
	raw = raw[offset : offset+min(limit, len(raw)-offset)]

	items := make([]*T, 0, len(raw))
	for _, av := range raw {
		item := new(T)
		if err := attributevalue.UnmarshalMap(av, item); err != nil {
			return nil, fmt.Errorf("dyndb: unmarshal failed: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

// Get item por chave primária
func (r *Repository[T]) Get(ctx context.Context, pk any) (*T, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.cfg.TableName),
		Key:            map[string]types.AttributeValue{r.cfg.HashKey: attr(pk)},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dyndb: get failed: %w", err)
	}
	if out.Item == nil {
		return nil, easyrepo.ErrNotFound
	}

	item := new(T)
	if err := attributevalue.UnmarshalMap(out.Item, item); err != nil {
		return nil, fmt.Errorf("dyndb: unmarshal failed: %w", err)
	}
	return item, nil
}

// Create grava um item novo. Sem chave, uma é gerada por NewKey e escrita de
// volta em item.
func (r *Repository[T]) Create(ctx context.Context, item *T) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("dyndb: marshal failed: %w", err)
	}

	changed := false
	if emptyAttr(av[r.cfg.HashKey]) {
		av[r.cfg.HashKey] = attr(r.cfg.NewKey())
		changed = true
	}
	if r.cfg.TTLAttribute != "" && r.cfg.TTL > 0 && emptyAttr(av[r.cfg.TTLAttribute]) {
		av[r.cfg.TTLAttribute] = attr(time.Now().Add(r.cfg.TTL).Unix())
		changed = true
	}
	if changed {
		if err := attributevalue.UnmarshalMap(av, item); err != nil {
			return fmt.Errorf("dyndb: unmarshal failed: %w", err)
		}
	}

	cond := expression.AttributeNotExists(expression.Name(r.cfg.HashKey))
	return r.put(ctx, av, cond, easyrepo.ErrAlreadyExists)
}

// Update sobrescreve um item existente.
func (r *Repository[T]) Update(ctx context.Context, item *T) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("dyndb: marshal failed: %w", err)
	}
	cond := expression.AttributeExists(expression.Name(r.cfg.HashKey))
	return r.put(ctx, av, cond, easyrepo.ErrNotFound)
}

// Delete remove o item pela sua chave.
func (r *Repository[T]) Delete(ctx context.Context, item *T) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("dyndb: marshal failed: %w", err)
	}
	key := map[string]types.AttributeValue{r.cfg.HashKey: av[r.cfg.HashKey]}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name(r.cfg.HashKey))).
		Build()
	if err != nil {
		return fmt.Errorf("dyndb: build condition: %w", err)
	}

	if uow, ok := unitOfWorkFrom(ctx); ok {
		uow.add(types.TransactWriteItem{Delete: &types.Delete{
			TableName:                aws.String(r.cfg.TableName),
			Key:                      key,
			ConditionExpression:      expr.Condition(),
			ExpressionAttributeNames: expr.Names(),
		}})
		return nil
	}

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.cfg.TableName),
		Key:                      key,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	return translateWriteError("delete", err, easyrepo.ErrNotFound)
}

func (r *Repository[T]) put(ctx context.Context, av map[string]types.AttributeValue, cond expression.ConditionBuilder, condErr error) error {
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("dyndb: build condition: %w", err)
	}

	if uow, ok := unitOfWorkFrom(ctx); ok {
		uow.add(types.TransactWriteItem{Put: &types.Put{
			TableName:                aws.String(r.cfg.TableName),
			Item:                     av,
			ConditionExpression:      expr.Condition(),
			ExpressionAttributeNames: expr.Names(),
		}})
		return nil
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.cfg.TableName),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	return translateWriteError("put", err, condErr)
}

func translateWriteError(op string, err, condErr error) error {
	if err == nil {
		return nil
	}
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return condErr
	}
	return fmt.Errorf("dyndb: %s failed: %w", op, err)
}

// attr converte qualquer valor para types.AttributeValue
func attr(v any) types.AttributeValue {
	if v == nil {
		return &types.AttributeValueMemberNULL{Value: true}
	}
	av, err := attributevalue.Marshal(v)
	if err != nil {
		return &types.AttributeValueMemberNULL{Value: true}
	}
	return av
}

func emptyAttr(av types.AttributeValue) bool {
	switch v := av.(type) {
	case nil:
		return true
	case *types.AttributeValueMemberNULL:
		return true
	case *types.AttributeValueMemberS:
		return v.Value == ""
	case *types.AttributeValueMemberN:
		f, err := strconv.ParseFloat(v.Value, 64)
		return err == nil && f == 0
	}
	return false
}

// lessAttr ordena chaves numéricas pelo valor e strings lexicograficamente.
func lessAttr(a, b types.AttributeValue) bool {
	switch av := a.(type) {
	case *types.AttributeValueMemberN:
		bv, ok := b.(*types.AttributeValueMemberN)
		if !ok {
			return true
		}
		af, _ := strconv.ParseFloat(av.Value, 64)
		bf, _ := strconv.ParseFloat(bv.Value, 64)
		return af < bf
	case *types.AttributeValueMemberS:
		bv, ok := b.(*types.AttributeValueMemberS)
		if !ok {
			return false
		}
		return av.Value < bv.Value
	}
	return false
}
