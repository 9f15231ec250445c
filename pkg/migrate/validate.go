package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"strings"

	"go.uber.org/multierr"
)

var migrationName = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)

var requiredMarkers = []string{"-- +goose Up", "-- +goose Down"}

func ValidateDir(dir string) error {
	if dir == "" {
		return errors.New("migrations dir is required")
	}
	return Validate(os.DirFS(dir))
}

// Validate reports every problem with the .sql files at the root of fsys.
// Names must be YYYYMMDDHHMMSS_snake.sql with a unique version, and each
// file needs both goose section markers. Other files are ignored.
func Validate(fsys fs.FS) error {
	names, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	var problems error
	owner := make(map[string]string, len(names))
	for _, name := range names {
		match := migrationName.FindStringSubmatch(path.Base(name))
		if match == nil {
			problems = multierr.Append(problems, fmt.Errorf("%s: name must look like YYYYMMDDHHMMSS_name.sql", name))
			continue
		}
		version := match[1]
		if prev, dup := owner[version]; dup {
			problems = multierr.Append(problems, fmt.Errorf("%s: version %s already used by %s", name, version, prev))
			continue
		}
		owner[version] = name
		problems = multierr.Append(problems, checkMarkers(fsys, name))
	}
	return problems
}

func checkMarkers(fsys fs.FS, name string) error {
	body, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	var missing []string
	for _, marker := range requiredMarkers {
		if !strings.Contains(string(body), marker) {
			missing = append(missing, marker)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: missing %s", name, strings.Join(missing, ", "))
	}
	return nil
}
