package view

import (
	"net/http"

	"github.com/raywall/xrest/pkg/paginator"
	"github.com/raywall/xrest/pkg/responder"
)

// Serialize returns the JSON dictionary of obj.
func Serialize[T any](obj *T) map[string]any {
	if obj == nil {
		return nil
	}
	return any(obj).(Model).ToJSONDict()
}

// GetList pagina o repositório e retorna {objects, pagination}.
func GetList[T any](c *Context[T]) (responder.Result, error) {
	v := c.view
	p := paginator.New[*T](c.Request, v.service.Repository(), v.listLimit())
	if !p.Valid() {
		return responder.Result{}, responder.FieldErrors(p.Errors)
	}

	meta, err := p.Meta(c.Context())
	if err != nil {
		return responder.Result{}, err
	}

	items := p.Items()
	objects := make([]map[string]any, 0, len(items))
	for _, obj := range items {
		objects = append(objects, Serialize(obj))
	}

	return responder.OK(map[string]any{
		"objects":    objects,
		"pagination": meta,
	}), nil
}

func (v *View[T]) listLimit() int {
	if v.opts.ListLimit != nil {
		if n := v.opts.ListLimit(); n >= 1 {
			return n
		}
	}
	return v.opts.DefaultListLimit
}

// PostList cria um objeto a partir do corpo da requisição.
func PostList[T any](c *Context[T]) (responder.Result, error) {
	obj, err := CreateObject(c)
	if err != nil {
		return responder.Result{}, err
	}
	return responder.OK(map[string]any{"object": Serialize(obj)}), nil
}

// GetObject retorna o objeto resolvido pela rota.
func GetObject[T any](c *Context[T]) (responder.Result, error) {
	return responder.OK(map[string]any{"object": Serialize(c.Object)}), nil
}

// PostObject atualiza o objeto resolvido com o formulário de update.
func PostObject[T any](c *Context[T]) (responder.Result, error) {
	if c.view.opts.UpdateForm == nil {
		return responder.MethodNotAllowed(), nil
	}
	if err := UpdateObject(c); err != nil {
		return responder.Result{}, err
	}
	return responder.OK(map[string]any{"object": Serialize(c.Object)}), nil
}

// DeleteObject remove o objeto resolvido.
func DeleteObject[T any](c *Context[T]) (responder.Result, error) {
	if err := c.view.service.Delete(c.Context(), c.Object); err != nil {
		return responder.Result{}, err
	}
	return responder.OK(map[string]any{}), nil
}

// CreateObject validates the create form against the request body and saves
// the new object.
func CreateObject[T any](c *Context[T]) (*T, error) {
	form := c.view.opts.CreateForm()
	obj, err := c.view.service.Create(c.Context(), form, c.Data)
	if err != nil {
		return nil, err
	}
	c.Object = obj
	return obj, nil
}

// UpdateObject validates the update form against the request body and the
// resolved object, then saves it.
func UpdateObject[T any](c *Context[T]) error {
	if c.view.opts.UpdateForm == nil {
		return responder.NewErrorWithStatus(http.StatusMethodNotAllowed, responder.Payload{"error": "method_not_allowed"})
	}
	if c.Object == nil {
		return responder.ObjectNotFound()
	}
	return c.view.service.Update(c.Context(), c.Object, c.view.opts.UpdateForm(), c.Data)
}
