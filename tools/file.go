package tools

import (
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
)

func FileExist(path string) bool {
	_, err := os.Stat(path)
	if err == nil {
		return true // 文件存在
	}
	// 不存在或权限问题等
	return false
}

const (
	ExcelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	PNGContentType   = "image/png"
)

// ContentDisposition 生成兼容中文文件名的 Content-Disposition
func ContentDisposition(displayName string, inline bool) string {
	escaped := url.QueryEscape(displayName)
	kind := "attachment"
	if inline {
		kind = "inline"
	}
	return fmt.Sprintf(`%s; filename="%s"; filename*=UTF-8''%s`, kind, escaped, escaped)
}

func SendStoredFile(c *gin.Context, path, displayName, contentType string) error {
	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", ContentDisposition(displayName, false))
	c.File(path)
	return nil
}

// SendBytes 直接把内存中的文件写回客户端
func SendBytes(c *gin.Context, data []byte, displayName, contentType string) {
	c.Header("Content-Disposition", ContentDisposition(displayName, false))
	c.Data(200, contentType, data)
}

// ParamUint 读取路径参数中的数字 ID
func ParamUint(c *gin.Context, key string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(key), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("无效的 %s: %q", key, c.Param(key))
	}
	return uint(id), nil
}
