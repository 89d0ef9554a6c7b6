package dyndb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/raywall/xrest/easyrepo"
)

type uowKey struct{}

type unitOfWork struct {
	writes []types.TransactWriteItem
}

func (u *unitOfWork) add(w types.TransactWriteItem) {
	u.writes = append(u.writes, w)
}

func unitOfWorkFrom(ctx context.Context) (*unitOfWork, bool) {
	uow, ok := ctx.Value(uowKey{}).(*unitOfWork)
	return uow, ok
}

// Transactor implementa easyrepo.Transactor como unidade de trabalho.
// Leituras dentro de Atomic enxergam apenas o estado já confirmado.
type Transactor struct {
	client DynamoDBClient
}

func NewTransactor(client DynamoDBClient) *Transactor {
	return &Transactor{client: client}
}

// Atomic acumula as escritas de fn e as confirma juntas quando fn retorna nil.
// Chamadas aninhadas participam da unidade externa; em caso de erro, apenas
// as escritas da chamada aninhada são descartadas.
func (t *Transactor) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if uow, ok := unitOfWorkFrom(ctx); ok {
		mark := len(uow.writes)
		if err := fn(ctx); err != nil {
			uow.writes = uow.writes[:mark]
			return err
		}
		return nil
	}

	uow := &unitOfWork{}
	if err := fn(context.WithValue(ctx, uowKey{}, uow)); err != nil {
		return err
	}
	return t.commit(ctx, uow)
}

func (t *Transactor) commit(ctx context.Context, uow *unitOfWork) error {
	switch n := len(uow.writes); {
	case n == 0:
		return nil
	case n > MaxTransactItems:
		return ErrTransactionTooLarge
	}

	_, err := t.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: uow.writes,
	})
	if err == nil {
		return nil
	}

	var canceled *types.TransactionCanceledException
	if errors.As(err, &canceled) {
		for i, reason := range canceled.CancellationReasons {
			if reason.Code == nil || *reason.Code != "ConditionalCheckFailed" {
				continue
			}
			if i < len(uow.writes) && isCreate(uow.writes[i]) {
				return easyrepo.ErrAlreadyExists
			}
			return easyrepo.ErrNotFound
		}
	}
	return fmt.Errorf("dyndb: transact write failed: %w", err)
}

func isCreate(w types.TransactWriteItem) bool {
	return w.Put != nil && w.Put.ConditionExpression != nil &&
		strings.HasPrefix(*w.Put.ConditionExpression, "attribute_not_exists")
}
