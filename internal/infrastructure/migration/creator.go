package migration

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
)

var fileTemplate = template.Must(template.New("migration").Parse(`-- {{.Name}}{{if .Rollback}} (rollback){{end}}
-- Created: {{.Created}}
{{- if .Description}}
-- {{.Description}}
{{- end}}

`))

// MigrationFile describes a created up/down pair
type MigrationFile struct {
	Version  uint
	Name     string
	UpPath   string
	DownPath string
}

// CreateMigration writes the next numbered up/down pair, e.g.
// 000002_add_snapshot_index.up.sql
func CreateMigration(migrationsDir, name, description string) (*MigrationFile, error) {
	slug := sanitizeName(name)
	if slug == "" {
		return nil, fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migrations directory: %w", err)
	}

	existing, err := ListMigrations(migrationsDir)
	if err != nil {
		return nil, err
	}
	var next uint = 1
	if len(existing) > 0 {
		next = existing[len(existing)-1].Version + 1
	}

	base := fmt.Sprintf("%06d_%s", next, slug)
	mf := &MigrationFile{
		Version:  next,
		Name:     slug,
		UpPath:   filepath.Join(migrationsDir, base+upSuffix),
		DownPath: filepath.Join(migrationsDir, base+downSuffix),
	}

	created := time.Now().UTC().Format(time.RFC3339)
	if err := writeMigrationFile(mf.UpPath, name, description, created, false); err != nil {
		return nil, err
	}
	if err := writeMigrationFile(mf.DownPath, name, description, created, true); err != nil {
		_ = os.Remove(mf.UpPath)
		return nil, err
	}
	return mf, nil
}

func writeMigrationFile(path, name, description, created string, rollback bool) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	return fileTemplate.Execute(f, map[string]any{
		"Name":        name,
		"Description": description,
		"Created":     created,
		"Rollback":    rollback,
	})
}

// sanitizeName lowercases name and collapses separators into single underscores
func sanitizeName(name string) string {
	var b strings.Builder
	pendingSep := false
	for _, c := range strings.ToLower(name) {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(c)
		case c == ' ' || c == '-' || c == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// Entry is one migration found on disk
type Entry struct {
	Version uint
	Name    string
}

func (e Entry) String() string {
	return fmt.Sprintf("%06d_%s", e.Version, e.Name)
}

// ListMigrations returns the up migrations in migrationsDir ordered by version.
// A missing directory yields an empty list.
func ListMigrations(migrationsDir string) ([]Entry, error) {
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var entries []Entry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), upSuffix) {
			continue
		}
		base := strings.TrimSuffix(f.Name(), upSuffix)
		num, name, ok := strings.Cut(base, "_")
		if !ok {
			continue
		}
		version, err := strconv.ParseUint(num, 10, 32)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Version: uint(version), Name: name})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Version < entries[j].Version })
	return entries, nil
}
