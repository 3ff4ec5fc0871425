// Package datadir is the single source of truth for briefd's on-disk layout.
package datadir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default data directory name under $HOME.
	DefaultDirName = ".briefd"

	// EnvVar is the environment variable that overrides the data directory.
	EnvVar = "BRIEFD_DATA_DIR"

	// subdirectory names inside the data root
	storeSubdir    = "store"
	incomingSubdir = "incoming"
)

// DataDir resolves all data-directory paths. Use New to construct an
// instance; call EnsureDirs before first use to create the tree.
type DataDir struct {
	root string
}

// New returns a DataDir rooted at the resolved data directory. It does NOT
// create subdirectories; call EnsureDirs for that.
//
// Resolution priority:
//  1. BRIEFD_DATA_DIR environment variable
//  2. configValue argument (from the config file's data_dir field)
//  3. ~/.briefd/
func New(configValue string) (*DataDir, error) {
	root, err := resolveRoot(configValue)
	if err != nil {
		return nil, err
	}
	return &DataDir{root: root}, nil
}

// Root returns the base data directory path.
func (d *DataDir) Root() string { return d.root }

// StoreDir returns {root}/store/, the vector store's persist directory.
func (d *DataDir) StoreDir() string { return filepath.Join(d.root, storeSubdir) }

// IncomingDir returns {root}/incoming/, the default document drop directory.
func (d *DataDir) IncomingDir() string { return filepath.Join(d.root, incomingSubdir) }

// FilePath returns the full path to a file directly inside the root.
func (d *DataDir) FilePath(filename string) string {
	return filepath.Join(d.root, filename)
}

// EnsureDirs creates the root and all subdirectories with 0700 permissions.
func (d *DataDir) EnsureDirs() error {
	dirs := []string{d.root, d.StoreDir(), d.IncomingDir()}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// resolveRoot determines the root path without creating it.
func resolveRoot(configValue string) (string, error) {
	dir := os.Getenv(EnvVar)
	if dir == "" {
		dir = configValue
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine home directory: %w", err)
		}
		dir = filepath.Join(home, DefaultDirName)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve data directory %s: %w", dir, err)
	}
	return abs, nil
}
