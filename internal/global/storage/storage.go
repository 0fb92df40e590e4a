// Package storage 保存上传的附件、获奖材料和证书，只向业务层返回相对 key
package storage

import (
	"competition-portal/config"
	"context"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var (
	ErrInvalidKey    = errors.New("非法的文件路径")
	ErrNotExist      = errors.New("文件不存在")
	ErrExtNotAllowed = errors.New("不支持的文件类型")
	ErrTooLarge      = errors.New("文件过大")
)

type Storage interface {
	// Save 写入 key 对应的对象，已存在时覆盖
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Remove 删除不存在的对象不报错
	Remove(ctx context.Context, key string) error
}

// Presigner 由支持直链下载的后端实现
type Presigner interface {
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}

var Default Storage

func Init() error {
	cfg := config.Get()
	switch cfg.Storage.Backend {
	case "s3":
		s, err := NewS3(context.Background(), cfg.S3)
		if err != nil {
			return err
		}
		Default = s
	case "local", "":
		Default = NewLocal(cfg.Storage.Home)
	default:
		return fmt.Errorf("不支持的存储后端: %s", cfg.Storage.Backend)
	}
	return nil
}

// UniqueName 生成 YYYYMMDD_HHMMSS_<8位随机串>.<ext>
func UniqueName(ext string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	name := now.Format("20060102_150405") + "_" + suffix
	if ext != "" {
		name += "." + ext
	}
	return name
}

// Key 拼接对象 key，各段都会去掉路径分隔符
func Key(parts ...string) string {
	return path.Join(parts...)
}

// CheckUpload 校验扩展名与大小，返回小写扩展名（不含点）
func CheckUpload(filename string, size int64, upload config.Upload) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	if ext == "" || !slices.Contains(upload.AllowedExts, ext) {
		return "", errors.Wrapf(ErrExtNotAllowed, "%q", ext)
	}
	if upload.MaxSizeMB > 0 && size > upload.MaxSizeMB<<20 {
		return "", errors.Wrapf(ErrTooLarge, "%d MB 以内", upload.MaxSizeMB)
	}
	return ext, nil
}

// cleanKey 拒绝绝对路径与 .. 逃逸
func cleanKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", errors.Wrap(ErrInvalidKey, key)
	}
	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", errors.Wrap(ErrInvalidKey, key)
	}
	return cleaned, nil
}

// ReadAll 读取整个对象，敏感检测使用
func ReadAll(ctx context.Context, s Storage, key string) ([]byte, error) {
	rc, err := s.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
