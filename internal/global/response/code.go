package response

// 错误码 = HTTP 状态码 * 100 + 序号
var (
	ErrInvalidRequest  = newError(40000, "请求参数错误")
	ErrInvalidPassword = newError(40001, "用户名或密码错误")
	ErrTokenInvalid    = newError(40100, "登录状态失效")
	ErrUnauthorized    = newError(40101, "权限不足")
	ErrAccountDisabled = newError(40102, "账号已被停用")
	ErrForbidden       = newError(40300, "无权执行该操作")
	ErrNotFound        = newError(40400, "资源不存在")
	ErrInvalidState    = newError(40900, "当前状态不允许该操作")
	ErrAlreadyExists   = newError(40901, "资源已存在")
	ErrFileTooLarge    = newError(41300, "文件过大")
	ErrServerInternal  = newError(50000, "服务器内部错误")
	ErrDatabase        = newError(50001, "数据库错误")
	ErrStorage         = newError(50002, "文件存储失败")
	ErrExternal        = newError(50200, "外部服务调用失败")
)

// HTTPStatus 由错误码推出 HTTP 状态码
func (e *Error) HTTPStatus() int {
	status := int(e.Code / 100)
	if status < 100 || status > 599 {
		return 500
	}
	return status
}
