package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirDatabases stores each embedded database as a file or directory named after it under Root.
type DirDatabases struct {
	Root string
}

// DeleteDatabase removes the named database. A database that does not exist is already deleted.
func (d DirDatabases) DeleteDatabase(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid database name %q", name)
	}
	if d.Root == "" {
		return errors.New("database root not configured")
	}

	if err := os.RemoveAll(filepath.Join(d.Root, name)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
