package blob

import (
	"fmt"
	"path/filepath"
)

// Open returns the store for kind ("file", "sqlite" or "memory") rooted at dir.
func Open(kind, dir string) (Store, error) {
	switch kind {
	case "memory":
		return NewMemoryStore(), nil
	case "file":
		return NewFileStore(dir)
	case "sqlite":
		if _, err := NewFileStore(dir); err != nil {
			return nil, err
		}
		return OpenSQLite(filepath.Join(dir, "sessionlog.db"))
	default:
		return nil, fmt.Errorf("unsupported store %q", kind)
	}
}
