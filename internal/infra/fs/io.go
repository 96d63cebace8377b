package fs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// RewriteFile replaces the whole content of path in place: truncate, write,
// fsync, close. There is no temp file and no rename, so readers holding the
// path keep seeing the same file. A crash mid-write can leave a partial file.
func RewriteFile(fs afero.Fs, path string, data []byte) error {
	if path == "" {
		return fmt.Errorf("rewrite file: path is empty")
	}

	f, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("rewrite file %s: %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("rewrite file %s: failed to write data: %w", path, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("rewrite file %s: failed to sync file: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("rewrite file %s: failed to close file: %w", path, err)
	}

	return nil
}

// MoveFile moves src to dst, creating dst's parent directory. When a plain
// rename is refused (different devices), the content is copied and src removed.
func MoveFile(fs afero.Fs, src, dst string) error {
	if src == "" {
		return fmt.Errorf("move file: source path is empty")
	}
	if dst == "" {
		return fmt.Errorf("move file: destination path is empty")
	}

	if _, err := fs.Stat(src); err != nil {
		return fmt.Errorf("move file %s -> %s: source does not exist: %w", src, dst, err)
	}

	if err := fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("move file %s -> %s: failed to create parent dir: %w", src, dst, err)
	}

	err := fs.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return fmt.Errorf("move file %s -> %s: %w", src, dst, err)
	}

	if err := copyFile(fs, src, dst); err != nil {
		return fmt.Errorf("move file %s -> %s: %w", src, dst, err)
	}
	if err := fs.Remove(src); err != nil {
		return fmt.Errorf("move file %s -> %s: copied but failed to remove source: %w", src, dst, err)
	}
	return nil
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		err = linkErr.Err
	}
	msg := err.Error()
	return strings.Contains(msg, "cross-device") || strings.Contains(msg, "not the same device")
}

func copyFile(fs afero.Fs, src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// UpdateJSON merges fields into the top-level object stored at path and
// rewrites the file. A missing or empty file starts from an empty object.
func UpdateJSON(fs afero.Fs, path string, fields map[string]any) error {
	doc := map[string]any{}

	data, err := afero.ReadFile(fs, path)
	switch {
	case err == nil && len(strings.TrimSpace(string(data))) > 0:
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("update json %s: invalid JSON format: %w", path, err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	case err != nil && !os.IsNotExist(err):
		return fmt.Errorf("update json %s: %w", path, err)
	}

	for k, v := range fields {
		doc[k] = v
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("update json %s: failed to marshal: %w", path, err)
	}

	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("update json %s: failed to create parent dir: %w", path, err)
	}
	return RewriteFile(fs, path, out)
}
