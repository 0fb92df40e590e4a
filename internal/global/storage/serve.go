package storage

import (
	"competition-portal/tools"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Serve 把对象作为附件返回给客户端。
// 本地后端经 Resolve 校验路径后直接发送文件；支持预签名的后端重定向到直链
func Serve(c *gin.Context, s Storage, key, displayName, contentType string) error {
	switch b := s.(type) {
	case *Local:
		full, err := b.Resolve(key)
		if err != nil {
			return err
		}
		if !tools.FileExist(full) {
			return ErrNotExist
		}
		return tools.SendStoredFile(c, full, displayName, contentType)
	case Presigner:
		url, err := b.PresignGet(c.Request.Context(), key, 10*time.Minute)
		if err != nil {
			return err
		}
		c.Redirect(http.StatusFound, url)
		return nil
	}

	rc, err := s.Open(c.Request.Context(), key)
	if err != nil {
		return err
	}
	defer rc.Close()
	c.Header("Content-Disposition", tools.ContentDisposition(displayName, false))
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, err = io.Copy(c.Writer, rc)
	return err
}
