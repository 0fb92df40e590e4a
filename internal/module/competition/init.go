package competition

import (
	"competition-portal/internal/global/logger"
	"log/slog"
)

var log *slog.Logger

type ModuleCompetition struct{}

func (m *ModuleCompetition) GetName() string {
	return "Competition"
}

func (m *ModuleCompetition) Init() {
	log = logger.New("Competition")
}

func selfInit() {
	m := &ModuleCompetition{}
	m.Init()
}
