// Package xrest fornece uma camada de scaffolding REST para CRUD em Go:
// a partir de um modelo e de um ou dois formulários, monta uma API JSON com
// listagem paginada, criação, leitura, atualização e remoção.
//
// Visão Geral:
// O módulo é organizado em camadas pequenas e substituíveis:
// 1. Persistência (easyrepo, gormdb, dyndb): contrato Repository[T] genérico,
// com implementações sobre GORM (sqlite/postgres) e DynamoDB.
// 2. Views (view): rotas nomeadas, despacho por método HTTP, autenticação,
// resolução do objeto por chave primária e transação por requisição.
// 3. Registro (api): monta cada view em "{prefix}/{api_name}/{version}/" e
// reverte nomes de rota em URLs.
// 4. Infraestrutura (pkg/...): settings, logging, métricas, autenticação,
// paginação, envelopes de resposta e transporte HTTP/Lambda.
//
// Todas as respostas seguem o envelope:
//
//	{"type": "ok", "status": 200, "metadata": {...}}
//	{"type": "error", "status": 422, "metadata": {"error": "invalid_data"}}
//
// Sub-Pacotes Principais:
//
// 1. view:
//   - View[T] com as rotas padrão "list" (/) e "object" (/{pk}/).
//   - Handlers GET/POST de lista e GET/POST/DELETE de objeto.
//   - Rotas extras via AddRoute e ObjectPath.
//
// 2. pkg/paginator:
//   - Paginação limit/offset com metadados next/previous.
//
// 3. pkg/config:
//   - Settings carregadas de YAML (arquivo, S3 ou DynamoDB), variáveis de
//     ambiente e placeholders ${ssm:...} / ${secret:...}.
//
// Exemplo de Início Rápido:
//
//	package main
//
//	import (
//		"log"
//		"net/http"
//
//		"github.com/rs/zerolog"
//
//		"github.com/raywall/xrest/api"
//		"github.com/raywall/xrest/examples/notes"
//		"github.com/raywall/xrest/examples/notes/models"
//		"github.com/raywall/xrest/gormdb"
//		"github.com/raywall/xrest/pkg/auth"
//		"github.com/raywall/xrest/pkg/config"
//	)
//
//	func main() {
//		db, err := gormdb.Open(config.DatabaseConf{
//			Driver: "sqlite",
//			DSN:    gormdb.MemoryDSN("notes"),
//		}, zerolog.Nop())
//		if err != nil {
//			log.Fatal(err)
//		}
//		_ = db.Migrate(&models.Note{})
//
//		v, err := notes.NewView(notes.Deps{
//			Repository:    gormdb.NewRepository[models.Note](db),
//			Transactor:    db,
//			Authenticator: auth.NewBasic("test", "test"),
//		})
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		registry := api.New(api.Config{Prefix: "/api"})
//		_ = registry.Register(v)
//		log.Fatal(http.ListenAndServe(":8080", registry.Handler()))
//	}
package xrest
