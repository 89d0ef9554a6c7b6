package easyrepo

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"

	"github.com/raywall/xrest/pkg/rules"
)

type HookType int

const (
	BeforeCreate HookType = iota
	BeforeUpdate
)

// Service centralizes form validation and persistence for T.
type Service[T any] struct {
	valid *validator.Validate
	rules *rules.RuleManager
	repo  Repository[T]
	hooks *Hooks[T]
}

// Hooks stores the business logic registered for execution before creates
// and updates.
type Hooks[T any] struct {
	BeforeCreate []BeforeSaveHook[T]
	BeforeUpdate []BeforeSaveHook[T]
}

// BeforeSaveHook runs after the form has been applied and before the item is
// written. existing is nil on create. Returning an error aborts the write.
type BeforeSaveHook[T any] func(ctx context.Context, item *T, existing *T) error

// NewService creates a Service with a validator that reports fields by their
// json names.
func NewService[T any](repo Repository[T]) (*Service[T], error) {
	rm, err := rules.NewRuleManager()
	if err != nil {
		return nil, err
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		return jsonName(sf)
	})

	return &Service[T]{
		valid: v,
		rules: rm,
		repo:  repo,
		hooks: &Hooks[T]{
			BeforeCreate: make([]BeforeSaveHook[T], 0),
			BeforeUpdate: make([]BeforeSaveHook[T], 0),
		},
	}, nil
}

// Repository returns the underlying repository.
func (s *Service[T]) Repository() Repository[T] {
	return s.repo
}

// RegisterHook allows the injection of custom logic before writes.
func (s *Service[T]) RegisterHook(hookType HookType, fn BeforeSaveHook[T]) {
	switch hookType {
	case BeforeCreate:
		s.hooks.BeforeCreate = append(s.hooks.BeforeCreate, fn)
	case BeforeUpdate:
		s.hooks.BeforeUpdate = append(s.hooks.BeforeUpdate, fn)
	}
}

// RegisterValidation allows adding custom validation rules to validator.
func (s *Service[T]) RegisterValidation(name string, fn validator.Func) error {
	return s.valid.RegisterValidation(name, fn)
}

// Validate binds data into form and validates it. instance is the object
// being updated, nil on create. The returned error is a *ValidationError
// when the data is invalid.
func (s *Service[T]) Validate(ctx context.Context, form Form[T], data map[string]any, instance *T) error {
	if instance != nil {
		if init, ok := form.(Initializer[T]); ok {
			init.Initial(instance)
		}
	}

	fields := Bind(data, form)

	if err := s.valid.StructCtx(ctx, form); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("easyrepo: validate form: %w", err)
		}
		for _, fe := range verrs {
			name := fe.Field()
			if _, seen := fields[name]; !seen {
				fields[name] = fieldMessage(fe)
			}
		}
	}

	if rp, ok := form.(RuleProvider); ok && len(fields) == 0 {
		vars := map[string]any{
			"data": data,
			"form": formValues(form),
		}
		if instance != nil {
			if m, ok := any(instance).(interface{ ToJSONDict() map[string]any }); ok {
				vars["instance"] = m.ToJSONDict()
			}
		}
		failures, err := s.rules.Check(rp.Rules(), vars)
		if err != nil {
			return fmt.Errorf("easyrepo: form rules: %w", err)
		}
		for k, msg := range failures {
			fields[k] = msg
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Create validates form against data and persists a new T built from it.
func (s *Service[T]) Create(ctx context.Context, form Form[T], data map[string]any) (*T, error) {
	if err := s.Validate(ctx, form, data, nil); err != nil {
		return nil, err
	}

	item := new(T)
	form.Apply(item)

	for _, hook := range s.hooks.BeforeCreate {
		if err := hook(ctx, item, nil); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Update validates form against data and applies it onto instance.
func (s *Service[T]) Update(ctx context.Context, instance *T, form Form[T], data map[string]any) error {
	if instance == nil {
		return ErrInvalidInput
	}
	if err := s.Validate(ctx, form, data, instance); err != nil {
		return err
	}

	existing := new(T)
	*existing = *instance
	form.Apply(instance)

	for _, hook := range s.hooks.BeforeUpdate {
		if err := hook(ctx, instance, existing); err != nil {
			return err
		}
	}
	return s.repo.Update(ctx, instance)
}

// Get retrieves an item by primary key.
func (s *Service[T]) Get(ctx context.Context, pk any) (*T, error) {
	if pk == nil {
		return nil, ErrInvalidInput
	}
	return s.repo.Get(ctx, pk)
}

// Delete removes the item.
func (s *Service[T]) Delete(ctx context.Context, item *T) error {
	if item == nil {
		return ErrInvalidInput
	}
	return s.repo.Delete(ctx, item)
}

func (s *Service[T]) List(ctx context.Context, offset, limit int) ([]*T, error) {
	return s.repo.List(ctx, offset, limit)
}

func (s *Service[T]) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// formValues exposes the bound form fields to CEL rules by json name.
func formValues(form any) map[string]any {
	out := make(map[string]any)
	v := reflect.ValueOf(form)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return out
	}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if name := jsonName(sf); name != "" {
			out[name] = v.Field(i).Interface()
		}
	}
	return out
}
