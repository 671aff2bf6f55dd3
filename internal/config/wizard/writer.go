package wizard

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vsops/vsbootstrap/internal/config"
)

// Function variable for dependency injection in tests.
var now = time.Now

// answersFile mirrors config.Inputs for output.
type answersFile struct {
	Domain     string `yaml:"domain"`
	SSL        bool   `yaml:"ssl"`
	DBPassword string `yaml:"dbPassword,omitempty"`
}

// WriteAnswers saves rec as an answers file readable by config.LoadAnswers.
// The password is only written when includePassword is set.
func WriteAnswers(rec config.Record, outputPath string, includePassword bool) error {
	out := answersFile{Domain: rec.Domain(), SSL: rec.SSL()}
	if includePassword {
		out.DBPassword = rec.DBPassword()
	}

	yamlBytes, err := yaml.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to marshal answers: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(generateHeader(includePassword))
	sb.WriteString("\n")
	sb.Write(yamlBytes)

	if err := os.WriteFile(outputPath, []byte(sb.String()), 0600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func generateHeader(includePassword bool) string {
	var sb strings.Builder
	sb.WriteString("# vsbootstrap answers file\n")
	sb.WriteString(fmt.Sprintf("# Generated: %s\n", now().Format(time.RFC3339)))
	sb.WriteString("# Use with: vsbootstrap up --answers <file>\n")
	if !includePassword {
		sb.WriteString("# dbPassword omitted; add it here or pass --db-password\n")
	}
	return sb.String()
}

// FileExists reports whether path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
