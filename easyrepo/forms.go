package easyrepo

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"github.com/raywall/xrest/pkg/rules"
)

// Form is a create or update form for T. Its exported fields, named by their
// json tags, are the writable fields; validate tags constrain them. Apply
// copies the cleaned values onto the instance.
type Form[T any] interface {
	Apply(instance *T)
}

// Initializer is implemented by forms that pre-fill themselves from the
// instance being updated, so absent fields keep their stored value.
type Initializer[T any] interface {
	Initial(instance *T)
}

// RuleProvider is implemented by forms with cross-field CEL rules.
type RuleProvider interface {
	Rules() []rules.Rule
}

// ValidationError carries the first error message of each invalid field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Bind decodes data into form field by field. Values are coerced the way an
// HTML form would be ("12" into an int, 12 into a string); values that cannot
// be coerced become field errors. Keys without a matching field are ignored.
func Bind(data map[string]any, form any) map[string]string {
	errs := make(map[string]string)

	v := reflect.ValueOf(form)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		errs[rules.NonFieldErrors] = fmt.Sprintf("form must be a pointer to struct, got %T", form)
		return errs
	}
	v = v.Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := jsonName(sf)
		if name == "" {
			continue
		}
		raw, ok := data[name]
		if !ok || raw == nil {
			continue
		}

		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           v.Field(i).Addr().Interface(),
			TagName:          "json",
			WeaklyTypedInput: true,
		})
		if err != nil {
			errs[name] = invalidMessage(sf.Type)
			continue
		}
		if err := dec.Decode(raw); err != nil {
			errs[name] = invalidMessage(sf.Type)
		}
	}
	return errs
}

// jsonName returns the field's JSON name, or "" when it is excluded.
func jsonName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return sf.Name
	}
	return name
}

func invalidMessage(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "Enter a whole number."
	case reflect.Float32, reflect.Float64:
		return "Enter a number."
	case reflect.Slice, reflect.Array:
		return "Enter a list of values."
	default:
		return "Enter a valid value."
	}
}

// fieldMessage renders a validator failure as a user facing message.
func fieldMessage(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required", "required_if", "required_unless", "required_with", "required_without":
		return "This field is required."
	case "max", "lte":
		if isString {
			return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).", fe.Param(), len([]rune(fmt.Sprint(fe.Value()))))
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "min", "gte":
		if isString {
			return fmt.Sprintf("Ensure this value has at least %s characters (it has %d).", fe.Param(), len([]rune(fmt.Sprint(fe.Value()))))
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "lt":
		return fmt.Sprintf("Ensure this value is less than %s.", fe.Param())
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	case "len":
		return fmt.Sprintf("Ensure this value has exactly %s characters.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "url", "http_url":
		return "Enter a valid URL."
	case "oneof":
		return fmt.Sprintf("Select a valid choice. %v is not one of the available choices.", fe.Value())
	default:
		return "Enter a valid value."
	}
}
