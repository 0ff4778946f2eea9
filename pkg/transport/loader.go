package transport

import (
	"context"
	"fmt"
	"io/fs"
	"os"
)

// Loader resolves the auxiliary scripts imported by a function job.
type Loader interface {
	Load(ctx context.Context, name string) ([]byte, error)
}

// FSLoader reads imports from a file system.
type FSLoader struct {
	FS fs.FS
}

func (l FSLoader) Load(_ context.Context, name string) ([]byte, error) {
	data, err := fs.ReadFile(l.FS, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load import %q: %w", name, err)
	}
	return data, nil
}

// DirLoader reads imports relative to a directory on disk.
func DirLoader(dir string) FSLoader {
	return FSLoader{FS: os.DirFS(dir)}
}

func loadImports(ctx context.Context, l Loader, names []string) (map[string][]byte, error) {
	if len(names) == 0 {
		return nil, nil
	}
	if l == nil {
		return nil, fmt.Errorf("job imports %v but no loader is configured", names)
	}

	imports := make(map[string][]byte, len(names))
	for _, name := range names {
		data, err := l.Load(ctx, name)
		if err != nil {
			return nil, err
		}
		imports[name] = data
	}
	return imports, nil
}
