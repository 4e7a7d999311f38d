package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/debemdeboas/instaplanner/internal/config"
)

func main() {
	// Create a config with defaults applied
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)

	outputFile := config.ExampleConfigPath
	if len(os.Args) > 1 {
		outputFile = os.Args[1]
	}

	output, err := render(cfg, outputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating config: %v\n", err)
		os.Exit(1)
	}

	if outputFile == "-" {
		fmt.Print(output)
		return
	}

	if err := os.WriteFile(outputFile, []byte(output), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generated example config: %s\n", outputFile)
}

// render encodes cfg as TOML when the target ends in .toml and as YAML otherwise.
func render(cfg *config.Config, target string) (string, error) {
	header := "# InstaPlanner Configuration Example\n# Copy this file to config.yaml (or config.toml) and customize as needed\n\n"

	if len(target) > 5 && target[len(target)-5:] == ".toml" {
		data, err := toml.Marshal(cfg)
		if err != nil {
			return "", err
		}
		return header + string(data), nil
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return header + string(data), nil
}
