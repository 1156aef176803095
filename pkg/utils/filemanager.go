// =============================================================================
// SDI Invoice Sender - File Manager Utility
// =============================================================================
//
// This module moves invoices between the two trees once they are sent.
//
// ARCHIVAL STRATEGY:
//   - A sent invoice is COPIED into the sent tree, at the same relative path
//     it had in the source tree (YYYY/YYYY-MM/<file>.xml)
//   - The source tree is never modified, so it stays a complete record of
//     everything the billing system produced
//   - Missing folders in the sent tree are created on demand
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager relocates sent invoices from the source tree to the sent tree.
type FileManager struct {
	fs billy.Filesystem

	// SourceDir is the root of the tree invoices are read from.
	SourceDir string

	// SentDir is the root of the tree sent invoices are copied to.
	SentDir string
}

// NewFileManager creates a FileManager for the given trees.
func NewFileManager(fs billy.Filesystem, sourceDir, sentDir string) *FileManager {
	return &FileManager{
		fs:        fs,
		SourceDir: filepath.Clean(sourceDir),
		SentDir:   filepath.Clean(sentDir),
	}
}

// =============================================================================
// RELOCATION
// =============================================================================

// DestinationPath maps a path in the source tree to the same place in the
// sent tree.
//
// RETURNS:
//   - The destination path.
//   - An error if filePath is not inside the source tree.
func (fm *FileManager) DestinationPath(filePath string) (string, error) {
	rel, err := filepath.Rel(fm.SourceDir, filepath.Clean(filePath))
	if err != nil {
		return "", fmt.Errorf("failed to locate %s in %s: %w", filePath, fm.SourceDir, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is not inside %s", filePath, fm.SourceDir)
	}

	return filepath.Join(fm.SentDir, rel), nil
}

// EnsureSentDir creates the sent tree root if it does not exist yet.
//
// RETURNS:
//   - True if the directory was created by this call.
//   - An error if it cannot be created.
func (fm *FileManager) EnsureSentDir() (bool, error) {
	if FileExists(fm.fs, fm.SentDir) {
		return false, nil
	}
	if err := fm.fs.MkdirAll(fm.SentDir, 0755); err != nil {
		return false, fmt.Errorf("failed to create sent tree %s: %w", fm.SentDir, err)
	}
	return true, nil
}

// Relocate copies a sent invoice into the sent tree.
//
// PARAMETERS:
//   - filePath: The path of the invoice in the source tree.
//
// RETURNS:
//   - The path of the copy in the sent tree.
//   - An error if the copy fails. The source file is left untouched.
func (fm *FileManager) Relocate(filePath string) (string, error) {
	dest, err := fm.DestinationPath(filePath)
	if err != nil {
		return "", err
	}

	if err := fm.fs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("failed to create sent directory: %w", err)
	}

	if err := copyFile(fm.fs, filePath, dest); err != nil {
		return "", fmt.Errorf("failed to copy %s to sent tree: %w", filePath, err)
	}

	return dest, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst, keeping the source mode.
func copyFile(fs billy.Filesystem, src, dst string) error {
	info, err := fs.Stat(src)
	if err != nil {
		return err
	}

	sourceFile, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		return err
	}

	return destFile.Close()
}

// FileExists checks if a file exists.
func FileExists(fs billy.Filesystem, path string) bool {
	_, err := fs.Stat(path)
	return !os.IsNotExist(err)
}
