package config

import "time"

// Settings é a configuração raiz do xrest. É construída uma vez na
// inicialização e passada explicitamente aos componentes que dependem dela.
type Settings struct {
	// DefaultListLimit é o tamanho de página padrão do paginador limit/offset.
	DefaultListLimit int `yaml:"default_list_limit" env:"XREST_DEFAULT_LIST_LIMIT" envDefault:"10" validate:"gte=1"`
	// BasicAuthUser e BasicAuthPassword formam o único par aceito pela autenticação Basic.
	BasicAuthUser     string `yaml:"basic_auth_user" env:"XREST_BASIC_AUTH_USER" envDefault:"test"`
	BasicAuthPassword string `yaml:"basic_auth_password" env:"XREST_BASIC_AUTH_PASSWORD" envDefault:"test"`

	Server   ServerConf   `yaml:"server"`
	API      APIConf      `yaml:"api"`
	Database DatabaseConf `yaml:"database"`
	Logging  LoggingConf  `yaml:"logging"`
	Metrics  MetricsConf  `yaml:"metrics"`
	Redis    RedisConf    `yaml:"redis"`
}

type ServerConf struct {
	Port            int    `yaml:"port" env:"XREST_PORT" envDefault:"8080" validate:"required_if=Runtime local,gte=0,lte=65535"`
	Runtime         string `yaml:"runtime" env:"XREST_RUNTIME" envDefault:"local" validate:"oneof=local lambda"`
	ShutdownTimeout string `yaml:"shutdown_timeout" env:"XREST_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	// ReloadQueue é a URL da fila SQS que dispara o reload das settings.
	ReloadQueue string `yaml:"reload_queue" env:"XREST_RELOAD_QUEUE"`
}

type APIConf struct {
	Prefix  string `yaml:"prefix" env:"XREST_API_PREFIX" envDefault:"/api"`
	Version string `yaml:"version" env:"XREST_API_VERSION" envDefault:"1.0" validate:"required"`
}

type DatabaseConf struct {
	Driver string `yaml:"driver" env:"XREST_DB_DRIVER" envDefault:"sqlite" validate:"oneof=sqlite postgres dynamodb"`
	DSN    string `yaml:"dsn" env:"XREST_DB_DSN" envDefault:"file:xrest.db?_busy_timeout=5000&_foreign_keys=on" validate:"required_unless=Driver dynamodb"`
	// Table é usado apenas pelo driver dynamodb.
	Table  string `yaml:"table" env:"XREST_DB_TABLE" validate:"required_if=Driver dynamodb"`
	Region string `yaml:"region" env:"AWS_REGION"`
}

type LoggingConf struct {
	Enabled bool   `yaml:"enabled" env:"XREST_LOG_ENABLED" envDefault:"true"`
	Level   string `yaml:"level" env:"XREST_LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	Format  string `yaml:"format" env:"XREST_LOG_FORMAT" envDefault:"json" validate:"oneof=json console"`
}

type MetricsConf struct {
	Datadog DatadogConf `yaml:"datadog"`
}

type DatadogConf struct {
	Enabled   bool   `yaml:"enabled" env:"DD_ENABLED"`
	Addr      string `yaml:"addr" env:"DD_AGENT_HOST" validate:"required_if=Enabled true"`
	Namespace string `yaml:"namespace" env:"DD_NAMESPACE" envDefault:"xrest."`
}

type RedisConf struct {
	// Addr vazio desativa a autenticação por token.
	Addr        string `yaml:"addr" env:"XREST_REDIS_ADDR"`
	Password    string `yaml:"password" env:"XREST_REDIS_PASSWORD"`
	DB          int    `yaml:"db" env:"XREST_REDIS_DB" envDefault:"0"`
	TokenPrefix string `yaml:"token_prefix" env:"XREST_REDIS_TOKEN_PREFIX" envDefault:"xrest:token:"`
}

// GetShutdownTimeout retorna o timeout de shutdown, 10s quando inválido.
func (s ServerConf) GetShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(s.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// Default returns the settings built from the envDefault tags only.
func Default() *Settings {
	s := &Settings{}
	if err := applyDefaults(s); err != nil {
		// envDefault tags are static; a failure here is a programming error.
		panic(err)
	}
	return s
}
