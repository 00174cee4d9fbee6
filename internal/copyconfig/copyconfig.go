// Package copyconfig reads the project's .grove-copy.json and copies the
// untracked files it names (env files, local settings) into new worktrees.
package copyconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
)

// FileName is the sidecar looked up in the project root.
const FileName = ".grove-copy.json"

// Config is the parsed sidecar. Patterns use path.Match syntax and are tried
// against both the slash-separated relative path and the base name. A
// pattern ending in "/**" matches everything below that directory.
type Config struct {
	Include []string `json:"include"`
	Exclude []string `json:"exclude"`
	Source  string   `json:"source"` // worktree to copy from; empty means the default branch's
}

// Load reads the sidecar from projectRoot. It returns nil when the file does
// not exist. Comments and trailing commas are allowed.
func Load(projectRoot string) (*Config, error) {
	p := filepath.Join(projectRoot, FileName)
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", FileName, err)
	}

	var cfg Config
	if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", p, err)
	}

	for _, pattern := range append(append([]string{}, cfg.Include...), cfg.Exclude...) {
		if _, err := path.Match(strings.TrimSuffix(pattern, "/**"), ""); err != nil {
			return nil, fmt.Errorf("invalid pattern %q in %s: %w", pattern, p, err)
		}
	}

	return &cfg, nil
}

// Matches reports whether rel (slash-separated, relative to the source
// worktree) is included and not excluded.
func (c *Config) Matches(rel string) bool {
	return matchAny(c.Include, rel) && !matchAny(c.Exclude, rel)
}

func matchAny(patterns []string, rel string) bool {
	base := path.Base(rel)
	for _, pattern := range patterns {
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok {
			if strings.HasPrefix(rel, dir+"/") {
				return true
			}
			continue
		}
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := path.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// Apply copies every matching regular file from srcDir to dstDir, keeping
// its permissions. Files that already exist in dstDir are left alone and .git
// is never entered. It returns the copied paths relative to dstDir.
func Apply(cfg *Config, srcDir, dstDir string) ([]string, error) {
	if cfg == nil || len(cfg.Include) == 0 {
		return nil, nil
	}

	var copied []string
	err := filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Name() == ".git" {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		slashRel := filepath.ToSlash(rel)
		if !cfg.Matches(slashRel) {
			return nil
		}

		dst := filepath.Join(dstDir, rel)
		if _, err := os.Lstat(dst); err == nil {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if err := copyFile(p, dst, info.Mode().Perm()); err != nil {
			return fmt.Errorf("copy %s: %w", slashRel, err)
		}
		copied = append(copied, slashRel)
		return nil
	})
	if err != nil {
		return copied, err
	}
	return copied, nil
}

func copyFile(src, dst string, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	// OpenFile is subject to the umask
	return os.Chmod(dst, perm)
}
