package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	engine "github.com/rxtech-lab/argo-ablation/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-ablation/internal/strategy"
	"gopkg.in/yaml.v3"
)

// schemaSource is a configuration that can describe itself as a JSON schema.
type schemaSource interface {
	GenerateSchemaJSON() (string, error)
}

type target struct {
	schemaName string
	sampleName string
	config     schemaSource
	sample     any
}

func targets() []target {
	engineConfig := engine.EmptyConfig()
	strategyConfig := strategy.DefaultConfig()

	return []target{
		{
			schemaName: "backtest-engine-v1-config.json",
			sampleName: "backtest-engine-v1-config.yaml",
			config:     &engineConfig,
			sample:     engineConfig,
		},
		{
			schemaName: "strategy-config.json",
			sampleName: "strategy-config.yaml",
			config:     &strategyConfig,
			sample:     strategyConfig,
		},
	}
}

func validatePaths(schemaPath, sampleConfigPath string) error {
	if schemaPath == "" {
		return fmt.Errorf("schema path cannot be empty")
	}

	if sampleConfigPath == "" {
		return fmt.Errorf("sample config path cannot be empty")
	}

	return nil
}

func validateSchemaName(name string) error {
	if name == "" {
		return fmt.Errorf("schema name cannot be empty")
	}

	if !strings.HasSuffix(name, ".json") {
		return fmt.Errorf("schema name %q must have .json extension", name)
	}

	return nil
}

func getSchemaReference(schemaName string) string {
	return "# yaml-language-server: $schema=" + schemaName + "\n"
}

func generateSchemaFile(config schemaSource, schemaPath string) error {
	schemaJSON, err := config.GenerateSchemaJSON()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(schemaPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		return fmt.Errorf("failed to write schema to file: %w", err)
	}

	return nil
}

// generateSampleConfig writes sample as YAML unless a file already exists at path.
func generateSampleConfig(sample any, path string, schemaName string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	yamlBytes, err := yaml.Marshal(sample)
	if err != nil {
		return fmt.Errorf("failed to marshal sample config to yaml: %w", err)
	}

	yamlBytes = append([]byte(getSchemaReference(schemaName)), yamlBytes...)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, yamlBytes, 0644); err != nil {
		return fmt.Errorf("failed to write sample config to file: %w", err)
	}

	return nil
}

func generate(dir string) error {
	for _, t := range targets() {
		if err := validateSchemaName(t.schemaName); err != nil {
			return err
		}

		schemaPath := filepath.Join(dir, t.schemaName)
		samplePath := filepath.Join(dir, t.sampleName)

		if err := validatePaths(schemaPath, samplePath); err != nil {
			return err
		}

		if err := generateSchemaFile(t.config, schemaPath); err != nil {
			return err
		}

		if err := generateSampleConfig(t.sample, samplePath, t.schemaName); err != nil {
			return err
		}

		log.Printf("Schema successfully generated at %s", schemaPath)
	}

	return nil
}

func main() {
	if err := generate("./config"); err != nil {
		log.Fatal(err)
	}
}
