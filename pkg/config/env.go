package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// applyDefaults fills every field carrying an envDefault tag.
func applyDefaults(target any) error {
	return walk(target, func(field reflect.StructField) (string, bool) {
		def, ok := field.Tag.Lookup("envDefault")
		return def, ok && def != ""
	})
}

// applyEnv overrides fields whose env variable is set in the process
// environment. Unset variables leave the current value untouched, so the
// order defaults -> file -> env is preserved.
func applyEnv(target any) error {
	return walk(target, func(field reflect.StructField) (string, bool) {
		name := field.Tag.Get("env")
		if name == "" {
			return "", false
		}
		return os.LookupEnv(name)
	})
}

type valueSource func(field reflect.StructField) (string, bool)

func walk(target any, source valueSource) error {
	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Ptr || val.IsNil() || val.Elem().Kind() != reflect.Struct {
		return &InvalidConfigError{Value: reflect.TypeOf(target)}
	}
	return walkStruct(val.Elem(), source)
}

func walkStruct(val reflect.Value, source valueSource) error {
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := walkStruct(field, source); err != nil {
				return err
			}
			continue
		}

		if field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct {
			if field.IsNil() {
				field.Set(reflect.New(field.Type().Elem()))
			}
			if err := walkStruct(field.Elem(), source); err != nil {
				return err
			}
			continue
		}

		raw, ok := source(fieldType)
		if !ok {
			continue
		}

		if err := setFieldValue(field, raw); err != nil {
			return &FieldError{
				FieldName: fieldType.Name,
				EnvVar:    fieldType.Tag.Get("env"),
				Value:     raw,
				Err:       err,
			}
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if field.Type() == durationType {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)

	case reflect.Bool:
		b, err := strconv.ParseBool(strings.ToLower(value))
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return &UnsupportedTypeError{Type: field.Type()}
		}
		parts := strings.Split(value, ",")
		out := reflect.MakeSlice(field.Type(), 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = reflect.Append(out, reflect.ValueOf(p))
			}
		}
		field.Set(out)

	default:
		return &UnsupportedTypeError{Type: field.Type()}
	}

	return nil
}
