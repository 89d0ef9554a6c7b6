/*
Package easyrepo fornece o contrato genérico Service-Repository usado pelas
views do xrest.

O pacote entrega:
  - Repository[T] e Transactor, implementados por gormdb (SQL) e dyndb (DynamoDB).
  - Formulários de criação/atualização com validação por struct tags
    (validator/v10), mensagens por campo e regras CEL entre campos.
  - Hooks BeforeCreate/BeforeUpdate para lógica de negócio antes de persistir.

Exemplo de uso:

	type NoteForm struct {
		Title string `json:"title" validate:"required,max=255"`
	}

	func (f *NoteForm) Apply(n *Note) { n.Title = f.Title }

	service, _ := easyrepo.NewService[Note](repo)
	note, err := service.Create(ctx, &NoteForm{}, map[string]any{"title": "hello"})
*/
package easyrepo
