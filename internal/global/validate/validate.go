// Package validate 注册 gin binding 使用的自定义校验标签
package validate

import (
	"competition-portal/internal/model"
	"slices"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var once sync.Once

// Init 注册 college、role、competition_type 三个标签，可重复调用
func Init() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("college", func(fl validator.FieldLevel) bool {
			return model.IsCollege(fl.Field().String())
		})
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return model.Role(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("competition_type", func(fl validator.FieldLevel) bool {
			return slices.Contains(model.CompetitionTypes, fl.Field().String())
		})
	})
}
