package ping

import (
	"competition-portal/internal/global/response"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const version = "1.0.0"

func (p *ModulePing) InitRouter(r *gin.RouterGroup) {
	r.GET("/ping", Ping)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func Ping(c *gin.Context) {
	response.Success(c, gin.H{
		"message": "pong",
		"version": version,
	})
}
