package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Local 把对象保存在 Home 目录下
type Local struct {
	Home string
}

func NewLocal(home string) *Local {
	return &Local{Home: home}
}

// Resolve 把 key 转为磁盘路径，并保证结果仍在 Home 之内
func (l *Local) Resolve(key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	root, err := filepath.Abs(l.Home)
	if err != nil {
		return "", err
	}
	full := filepath.Join(root, filepath.FromSlash(cleaned))
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Wrap(ErrInvalidKey, key)
	}
	return full, nil
}

func (l *Local) Save(_ context.Context, key string, r io.Reader, _ string) error {
	full, err := l.Resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), os.ModePerm); err != nil {
		return errors.WithStack(err)
	}
	// 先写临时文件再改名，失败时不留下半个文件
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return errors.WithStack(err)
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return errors.WithStack(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(os.Rename(tmp.Name(), full))
}

func (l *Local) Open(_ context.Context, key string) (io.ReadCloser, error) {
	full, err := l.Resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrap(ErrNotExist, key)
	}
	return f, errors.WithStack(err)
}

func (l *Local) Remove(_ context.Context, key string) error {
	full, err := l.Resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.WithStack(err)
	}
	return nil
}
