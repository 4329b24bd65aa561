package utils

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

var (
	osUserHomeDir      = os.UserHomeDir
	execLookPath       = exec.LookPath
	execCommandContext = exec.CommandContext
)

// ExpandPath resolves a leading ~/ against the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := osUserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// PathExists reports whether the path exists on the given filesystem.
func PathExists(fsys afero.Fs, path string) bool {
	_, err := fsys.Stat(ExpandPath(path))
	return err == nil
}

// CommandExists reports whether cmd resolves on PATH.
func CommandExists(cmd string) bool {
	_, err := execLookPath(cmd)
	return err == nil
}

// GlobPaths expands the pattern (with ~) and globs it on fsys.
func GlobPaths(fsys afero.Fs, pattern string) ([]string, error) {
	return afero.Glob(fsys, ExpandPath(pattern))
}

// DirSizeWithCount walks path and returns the total byte size and the
// number of regular files below it. Unreadable entries are skipped.
func DirSizeWithCount(fsys afero.Fs, path string) (int64, int64, error) {
	var size, count int64
	err := afero.Walk(fsys, path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
			count++
		}
		return nil
	})
	return size, count, err
}

// DirSize returns the total size of all regular files below path.
func DirSize(fsys afero.Fs, path string) (int64, error) {
	size, _, err := DirSizeWithCount(fsys, path)
	return size, err
}

// PathSize returns the file size, or the recursive size for a directory.
func PathSize(fsys afero.Fs, path string) (int64, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return DirSize(fsys, path)
	}
	return info.Size(), nil
}

// CopyFile copies src to dst, preserving the source's permission bits.
// The destination is truncated if it already exists.
func CopyFile(fsys afero.Fs, src, dst string) error {
	info, err := fsys.Stat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("copy file: %s is a directory", src)
	}

	in, err := fsys.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fsys.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}

// CopyDir recursively copies the tree rooted at src to dst.
func CopyDir(fsys afero.Fs, src, dst string) error {
	srcInfo, err := fsys.Stat(src)
	if err != nil {
		return err
	}
	if !srcInfo.IsDir() {
		return fmt.Errorf("copy dir: %s is not a directory", src)
	}

	return afero.Walk(fsys, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return fsys.MkdirAll(target, info.Mode().Perm())
		}
		return CopyFile(fsys, path, target)
	})
}

// ClearDirContents removes everything below dir while keeping dir itself.
// Entries whose full path appears in skip are left alone and counted
// separately; failures are collected per entry rather than aborting the
// sweep.
func ClearDirContents(fsys afero.Fs, dir string, skip map[string]bool) (removed, skipped int, errs []error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return 0, 0, []error{err}
	}

	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())
		if skip[full] {
			skipped++
			continue
		}
		if err := fsys.RemoveAll(full); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", full, err))
			continue
		}
		removed++
	}
	return removed, skipped, errs
}
