// Package injector resolve placeholders ${env.X}, ${ssm./path}, ${secret.id}
// e ${secret.id#campo} em todos os campos string de uma struct de configuração.
package injector

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Regex para capturar padrões ${tipo.chave}
// Ex: ${env.API_KEY}, ${ssm./app/config}, ${secret.db#password}
var pattern = regexp.MustCompile(`\$\{(env|ssm|secret)\.([^}]+)\}`)

// Interfaces para abstrair o SDK da AWS (Permite Mocking)
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type SecretsClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

type Option func(*Injector)

// WithSSM define o cliente do Parameter Store.
func WithSSM(c SSMClient) Option {
	return func(i *Injector) { i.ssm = c }
}

// WithSecrets define o cliente do Secrets Manager.
func WithSecrets(c SecretsClient) Option {
	return func(i *Injector) { i.secrets = c }
}

// WithRegion define a região usada quando os clientes reais são criados sob demanda.
func WithRegion(region string) Option {
	return func(i *Injector) { i.region = region }
}

type Injector struct {
	ssm     SSMClient
	secrets SecretsClient
	region  string

	awsOnce sync.Once
	awsCfg  aws.Config
	awsErr  error
}

func New(opts ...Option) *Injector {
	i := &Injector{region: os.Getenv("AWS_REGION")}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Inject percorre target (ponteiro para struct) substituindo os placeholders.
func (i *Injector) Inject(ctx context.Context, target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("injector: target must be a non-nil pointer")
	}
	return i.injectRecursive(ctx, v.Elem())
}

func (i *Injector) injectRecursive(ctx context.Context, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Struct:
		for k := 0; k < v.NumField(); k++ {
			if err := i.injectRecursive(ctx, v.Field(k)); err != nil {
				return err
			}
		}

	case reflect.String:
		if !v.CanSet() {
			return nil
		}
		newValue, err := i.interpolateString(ctx, v.String())
		if err != nil {
			return err
		}
		v.SetString(newValue)

	case reflect.Ptr:
		if !v.IsNil() {
			return i.injectRecursive(ctx, v.Elem())
		}

	case reflect.Slice:
		for j := 0; j < v.Len(); j++ {
			if err := i.injectRecursive(ctx, v.Index(j)); err != nil {
				return err
			}
		}

	case reflect.Map:
		if v.IsNil() || v.Type().Key().Kind() != reflect.String || v.Type().Elem().Kind() != reflect.String {
			return nil
		}
		iter := v.MapRange()
		updates := make(map[string]string)
		for iter.Next() {
			newVal, err := i.interpolateString(ctx, iter.Value().String())
			if err != nil {
				return err
			}
			updates[iter.Key().String()] = newVal
		}
		for k, val := range updates {
			v.SetMapIndex(reflect.ValueOf(k).Convert(v.Type().Key()), reflect.ValueOf(val).Convert(v.Type().Elem()))
		}
	}
	return nil
}

// interpolateString realiza a substituição baseada em Regex
func (i *Injector) interpolateString(ctx context.Context, input string) (string, error) {
	if !strings.Contains(input, "${") {
		return input, nil
	}

	var firstErr error
	result := pattern.ReplaceAllStringFunc(input, func(match string) string {
		if firstErr != nil {
			return match
		}
		sub := pattern.FindStringSubmatch(match)
		val, err := i.fetchValue(ctx, sub[1], sub[2])
		if err != nil {
			firstErr = err
			return match
		}
		return val
	})

	return result, firstErr
}

// fetchValue centraliza a busca de dados
func (i *Injector) fetchValue(ctx context.Context, sourceType, key string) (string, error) {
	switch sourceType {
	case "env":
		return os.Getenv(key), nil
	case "ssm":
		return i.getParameter(ctx, key)
	case "secret":
		return i.getSecret(ctx, key)
	}
	return "", fmt.Errorf("injector: unknown source %q", sourceType)
}

func (i *Injector) getParameter(ctx context.Context, path string) (string, error) {
	if i.ssm == nil {
		cfg, err := i.awsConfig(ctx)
		if err != nil {
			return "", err
		}
		i.ssm = ssm.NewFromConfig(cfg)
	}

	out, err := i.ssm.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(path),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("injector: ssm get parameter %s: %w", path, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("injector: ssm parameter %s has no value", path)
	}
	return *out.Parameter.Value, nil
}

// getSecret aceita "id" ou "id#campo"; com campo, o segredo deve ser um objeto JSON.
func (i *Injector) getSecret(ctx context.Context, ref string) (string, error) {
	secretID, field, hasField := strings.Cut(ref, "#")

	if i.secrets == nil {
		cfg, err := i.awsConfig(ctx)
		if err != nil {
			return "", err
		}
		i.secrets = secretsmanager.NewFromConfig(cfg)
	}

	out, err := i.secrets.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretID),
	})
	if err != nil {
		return "", fmt.Errorf("injector: get secret %s: %w", secretID, err)
	}
	if out.SecretString == nil {
		return "", fmt.Errorf("injector: secret %s has no string value", secretID)
	}
	if !hasField {
		return *out.SecretString, nil
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(*out.SecretString), &data); err != nil {
		return "", fmt.Errorf("injector: secret %s is not a JSON object: %w", secretID, err)
	}
	val, ok := data[field]
	if !ok {
		return "", fmt.Errorf("injector: secret %s has no field %q", secretID, field)
	}
	return fmt.Sprintf("%v", val), nil
}

func (i *Injector) awsConfig(ctx context.Context) (aws.Config, error) {
	i.awsOnce.Do(func() {
		var opts []func(*awsconfig.LoadOptions) error
		if i.region != "" {
			opts = append(opts, awsconfig.WithRegion(i.region))
		}
		i.awsCfg, i.awsErr = awsconfig.LoadDefaultConfig(ctx, opts...)
	})
	return i.awsCfg, i.awsErr
}
