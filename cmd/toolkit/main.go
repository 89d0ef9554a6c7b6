package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/raywall/xrest/pkg/config"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	filePtr := validateCmd.String("file", "", "Caminho do arquivo YAML ou S3/DynamoDB URI")

	if len(os.Args) < 2 {
		fmt.Println("Comandos esperados: validate")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		_ = validateCmd.Parse(os.Args[2:])
		if *filePtr == "" {
			fmt.Println("Erro: flag -file é obrigatória")
			os.Exit(1)
		}
		if err := runValidate(context.Background(), os.Stdout, *filePtr, os.Getenv("OUTPUT_FORMAT")); err != nil {
			os.Exit(1) // Falha no CI
		}
	default:
		fmt.Println("Comando desconhecido")
		os.Exit(1)
	}
}

// report é a saída JSON do validate, consumida por pipelines de CI.
type report struct {
	Valid    bool            `json:"valid"`
	Source   string          `json:"source"`
	Error    string          `json:"error,omitempty"`
	Settings *config.Settings `json:"settings,omitempty"`
}

func runValidate(ctx context.Context, out io.Writer, source, format string) error {
	loader := config.NewLoader()
	settings, err := loader.Load(ctx, source)

	if format == "json" {
		r := report{Valid: err == nil, Source: source, Settings: settings}
		if err != nil {
			r.Error = err.Error()
		}
		redact(r.Settings)
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(r); encErr != nil {
			return encErr
		}
		return err
	}

	fmt.Fprintf(out, "Analisando configuração: %s ...\n", source)
	if err != nil {
		fmt.Fprintf(out, "Erro de Carregamento/Estrutura:\n%v\n", err)
		return err
	}
	fmt.Fprintf(out, "Configuração válida: runtime=%s driver=%s api=%s/{api}/%s/\n",
		settings.Server.Runtime, settings.Database.Driver, settings.API.Prefix, settings.API.Version)
	return nil
}

// redact remove segredos antes de imprimir as settings.
func redact(s *config.Settings) {
	if s == nil {
		return
	}
	if s.BasicAuthPassword != "" {
		s.BasicAuthPassword = "***"
	}
	if s.Redis.Password != "" {
		s.Redis.Password = "***"
	}
}
