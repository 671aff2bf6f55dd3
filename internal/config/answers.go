package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadAnswers reads an answers file:
//
//	domain: verify.example.com
//	ssl: true
//	dbPassword: s3cret
//
// Unknown keys are rejected. An empty path returns zero Inputs.
func LoadAnswers(path string) (Inputs, error) {
	if path == "" {
		return Inputs{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Inputs{}, fmt.Errorf("failed to read answers file: %w", err)
	}

	var in Inputs
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		return Inputs{}, fmt.Errorf("failed to parse answers file %s: %w", path, err)
	}
	return in, nil
}
