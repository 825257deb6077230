package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ri0t/isomer/internal/logging"
	"github.com/ri0t/isomer/internal/schemata"
)

// Object is one stored document.
type Object map[string]interface{}

// UUID returns the object key, empty when unset.
func (o Object) UUID() string {
	s, _ := o["uuid"].(string)
	return s
}

// Name returns the display name, empty when unset.
func (o Object) Name() string {
	s, _ := o["name"].(string)
	return s
}

// ErrNotFound reports a lookup with no object behind it.
var ErrNotFound = fmt.Errorf("object not found")

// Save validates obj against its schema and upserts it. A missing uuid
// is generated. The stored uuid is returned.
func (s *Store) Save(ctx context.Context, schemaName string, obj Object) (string, error) {
	def, err := schemata.Get(schemaName)
	if err != nil {
		return "", err
	}
	table, err := collectionTable(schemaName)
	if err != nil {
		return "", err
	}

	if obj.UUID() == "" {
		obj["uuid"] = uuid.New().String()
	}
	if err := schemata.ValidateObject(def.Schema, map[string]interface{}(obj)); err != nil {
		return "", err
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("failed to encode object: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := fmt.Sprintf(`
		INSERT INTO %s (uuid, name, data, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(uuid) DO UPDATE SET
			name = excluded.name,
			data = excluded.data,
			updated_at = CURRENT_TIMESTAMP`, table)
	if _, err := s.db.ExecContext(ctx, query, obj.UUID(), obj.Name(), string(data)); err != nil {
		return "", fmt.Errorf("failed to save %s object: %w", schemaName, err)
	}

	logging.DBDebug("Saved %s object %s", schemaName, obj.UUID())
	return obj.UUID(), nil
}

// FindOne fetches the object with the given uuid.
func (s *Store) FindOne(ctx context.Context, schemaName, id string) (Object, error) {
	table, err := collectionTable(schemaName)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	query := fmt.Sprintf("SELECT data FROM %s WHERE uuid = ?", table)
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s %s: %w", schemaName, id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch %s object: %w", schemaName, err)
	}
	return decodeObject(data)
}

// Find returns all objects of a collection matching the filter. Filter
// keys are JSON paths relative to the document root; an empty filter
// returns everything.
func (s *Store) Find(ctx context.Context, schemaName string, filter map[string]interface{}) ([]Object, error) {
	table, err := collectionTable(schemaName)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT data FROM %s", table)
	var args []interface{}

	if len(filter) > 0 {
		keys := make([]string, 0, len(filter))
		for key := range filter {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		clauses := make([]string, 0, len(keys))
		for _, key := range keys {
			clauses = append(clauses, "json_extract(data, ?) = ?")
			args = append(args, "$."+key, filter[key])
		}
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY uuid"

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s collection: %w", schemaName, err)
	}
	defer rows.Close()

	var objects []Object
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		obj, err := decodeObject(data)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, rows.Err()
}

// Delete removes the object with the given uuid.
func (s *Store) Delete(ctx context.Context, schemaName, id string) error {
	table, err := collectionTable(schemaName)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE uuid = ?", table), id)
	if err != nil {
		return fmt.Errorf("failed to delete %s object: %w", schemaName, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %s: %w", schemaName, id, ErrNotFound)
	}

	logging.DB("Deleted %s object %s", schemaName, id)
	return nil
}

// Count returns the number of objects in a collection.
func (s *Store) Count(ctx context.Context, schemaName string) (int64, error) {
	table, err := collectionTable(schemaName)
	if err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	err = s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count)
	return count, err
}

// Drop empties a collection. The table stays available.
func (s *Store) Drop(ctx context.Context, schemaName string) error {
	table, err := collectionTable(schemaName)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
		return fmt.Errorf("failed to drop %s collection: %w", schemaName, err)
	}

	logging.DB("Dropped all %s objects", schemaName)
	return nil
}

// ExportOptions controls the JSON backup format.
type ExportOptions struct {
	// Pretty indents the output for humans.
	Pretty bool
	// Omit drops the named top-level fields from every object.
	Omit []string
}

// Export writes a collection as a JSON array.
func (s *Store) Export(ctx context.Context, schemaName string, w io.Writer, opts ExportOptions) error {
	objects, err := s.Find(ctx, schemaName, nil)
	if err != nil {
		return err
	}
	if objects == nil {
		objects = []Object{}
	}

	for _, obj := range objects {
		for _, field := range opts.Omit {
			delete(obj, field)
		}
	}

	enc := json.NewEncoder(w)
	if opts.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(objects)
}

// ExportAll writes every collection into dir as <name>.json and
// returns the files written.
func (s *Store) ExportAll(ctx context.Context, dir string, opts ExportOptions) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	names, err := s.Collections()
	if err != nil {
		return nil, err
	}

	var files []string
	for _, name := range names {
		path := filepath.Join(dir, name+".json")
		f, err := os.Create(path)
		if err != nil {
			return files, fmt.Errorf("failed to create %s: %w", path, err)
		}
		err = s.Export(ctx, name, f, opts)
		f.Close()
		if err != nil {
			return files, err
		}
		files = append(files, path)
	}

	logging.DB("Exported %d collections to %s", len(files), dir)
	return files, nil
}

func decodeObject(data string) (Object, error) {
	var obj Object
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("failed to decode stored object: %w", err)
	}
	return obj, nil
}
