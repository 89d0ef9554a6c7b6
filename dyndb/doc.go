// Package dyndb implementa easyrepo.Repository sobre o AWS DynamoDB Go SDK (v2).
//
// Visão Geral:
// O pacote oferece `Repository[T]`, que persiste structs com tags `dynamodbav`
// numa tabela com chave de partição simples, e `Transactor`, uma unidade de
// trabalho: escritas feitas dentro de `Atomic` são acumuladas e confirmadas
// num único `TransactWriteItems` quando a função retorna sem erro.
//
// Funcionalidades Principais:
// - CRUD Tipado: `Get`, `Create`, `Update`, `Delete` usando tipos Go nativos,
//   com condições `attribute_not_exists`/`attribute_exists`.
// - Listagem estável: `List` ordena pela chave de partição antes de aplicar
//   offset/limit; `Count` usa `Select=COUNT`.
// - Geração de chaves: `TableConfig.NewKey` (UUID por padrão, `NumericKey`
//   para chaves numéricas roteáveis).
// - TTL automático quando `TTLAttribute` e `TTL` estão configurados.
// - Mocks Integrados: `MockDynamoClient` para testes unitários.
//
// Exemplo:
//
//	type Note struct {
//		ID    int64  `dynamodbav:"id"`
//		Title string `dynamodbav:"title"`
//	}
//
//	cfg := dyndb.TableConfig{TableName: "notes", HashKey: "id", NewKey: dyndb.NumericKey}
//	notes := dyndb.New[Note](client, cfg)
//	tx := dyndb.NewTransactor(client)
//
//	err := tx.Atomic(ctx, func(ctx context.Context) error {
//		return notes.Create(ctx, &Note{Title: "hello"})
//	})
package dyndb
