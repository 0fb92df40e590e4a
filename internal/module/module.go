package module

import (
	"competition-portal/internal/module/assessment"
	"competition-portal/internal/module/award"
	"competition-portal/internal/module/competition"
	"competition-portal/internal/module/final"
	"competition-portal/internal/module/judge"
	"competition-portal/internal/module/ping"
	"competition-portal/internal/module/project"
	"competition-portal/internal/module/review"
	"competition-portal/internal/module/user"

	"github.com/gin-gonic/gin"
)

type Module interface {
	GetName() string
	Init()
	InitRouter(r *gin.RouterGroup)
}

var Modules []Module

func registerModule(m []Module) {
	Modules = append(Modules, m...)
}

func init() {
	// Register your module here
	registerModule([]Module{
		&user.ModuleUser{},
		&ping.ModulePing{},
		&competition.ModuleCompetition{},
		&project.ModuleProject{},
		&review.ModuleReview{},
		&judge.ModuleJudge{},
		&final.ModuleFinal{},
		&award.ModuleAward{},
		&assessment.ModuleAssessment{},
	})
}
