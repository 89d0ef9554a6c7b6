/*
Package gormdb implementa easyrepo.Repository e easyrepo.Transactor sobre o
gorm, com os drivers SQLite (mattn/go-sqlite3) e PostgreSQL (lib/pq).

A transação ativa viaja no context.Context: todo acesso feito por um
Repository dentro de DB.Atomic usa a mesma transação, e chamadas aninhadas
viram savepoints.

	db, _ := gormdb.Open(settings.Database, logger)
	_ = db.Migrate(&Note{})
	notes := gormdb.NewRepository[Note](db)

	err := db.Atomic(ctx, func(ctx context.Context) error {
		return notes.Create(ctx, &Note{Title: "hello"})
	})
*/
package gormdb
