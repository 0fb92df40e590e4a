package judge

import (
	"competition-portal/internal/global/logger"
	"log/slog"
)

var log *slog.Logger

type ModuleJudge struct{}

func (m *ModuleJudge) GetName() string {
	return "Judge"
}

func (m *ModuleJudge) Init() {
	log = logger.New("Judge")
}

func selfInit() {
	m := &ModuleJudge{}
	m.Init()
}
