package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ConfigValidator struct {
	validate *validator.Validate
}

// NewValidator cria uma nova instância do validador
func NewValidator() *ConfigValidator {
	return &ConfigValidator{
		validate: validator.New(),
	}
}

// Validate realiza validações estruturais (tags) e semânticas
func (cv *ConfigValidator) Validate(cfg *Settings) error {
	if err := cv.validate.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			var msgs []string
			for _, e := range validationErrors {
				msgs = append(msgs, fmt.Sprintf("field '%s' failed on rule '%s'", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("structural validation errors:\n- %s", strings.Join(msgs, "\n- "))
		}
		return fmt.Errorf("structural validation error: %w", err)
	}

	if err := cv.validateSemantics(cfg); err != nil {
		return fmt.Errorf("semantic validation error: %w", err)
	}

	return nil
}

func (cv *ConfigValidator) validateSemantics(cfg *Settings) error {
	if cfg.API.Prefix != "" && !strings.HasPrefix(cfg.API.Prefix, "/") {
		return fmt.Errorf("api prefix must start with '/': %q", cfg.API.Prefix)
	}
	if strings.Contains(cfg.API.Version, "/") {
		return fmt.Errorf("api version must not contain '/': %q", cfg.API.Version)
	}
	if strings.Contains(cfg.BasicAuthUser, ":") {
		// the Basic scheme splits user and password on the first colon
		return fmt.Errorf("basic auth user must not contain ':'")
	}
	return nil
}
