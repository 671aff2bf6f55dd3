package artifacts

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vsops/vsbootstrap/internal/addons/helm"
	"github.com/vsops/vsbootstrap/internal/config"
)

// BackupSuffix is appended to the values file name for the backup copy.
const BackupSuffix = ".backup"

// DatabaseName is the database created by the chart.
const DatabaseName = "verify"

// Value paths set in the PostgreSQL values file.
const (
	KeyAuthPassword   = "auth.postgresPassword"
	KeyAuthDatabase   = "auth.database"
	KeyGlobalPassword = "global.postgresql.auth.postgresPassword"
)

// DatabaseOverrides returns the values derived from rec.
func DatabaseOverrides(rec config.Record) helm.Values {
	v := helm.Values{}
	v.Set(KeyAuthPassword, rec.DBPassword())
	v.Set(KeyAuthDatabase, DatabaseName)
	v.Set(KeyGlobalPassword, rec.DBPassword())
	return v
}

// RewriteValues merges the overrides for rec into the values file at path,
// keeping every other key. An existing file is copied to path+BackupSuffix
// before it is replaced. It reports whether the file changed.
func RewriteValues(path string, rec config.Record) (bool, error) {
	existing := helm.Values{}
	original, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		original = nil
	case err != nil:
		return false, fmt.Errorf("failed to read values file: %w", err)
	default:
		if existing, err = helm.ReadValuesFile(path); err != nil {
			return false, err
		}
	}

	merged := helm.Merge(existing, DatabaseOverrides(rec))
	out, err := encodeValues(merged)
	if err != nil {
		return false, err
	}
	if original != nil && bytes.Equal(original, out) {
		return false, nil
	}
	if original != nil && satisfied(existing, rec) {
		return false, nil
	}

	if original != nil {
		if err := os.WriteFile(path+BackupSuffix, original, 0o600); err != nil {
			return false, fmt.Errorf("failed to back up values file: %w", err)
		}
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return false, fmt.Errorf("failed to write values file: %w", err)
	}
	return true, nil
}

// satisfied reports whether every override already holds in v.
func satisfied(v helm.Values, rec config.Record) bool {
	want := map[string]string{
		KeyAuthPassword:   rec.DBPassword(),
		KeyAuthDatabase:   DatabaseName,
		KeyGlobalPassword: rec.DBPassword(),
	}
	for path, val := range want {
		got, ok := v.Get(path)
		if !ok || fmt.Sprint(got) != val {
			return false
		}
	}
	return true
}

func encodeValues(v helm.Values) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(map[string]any(v)); err != nil {
		return nil, fmt.Errorf("failed to encode values to YAML: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode values to YAML: %w", err)
	}
	return buf.Bytes(), nil
}
