package award

import (
	"competition-portal/internal/global/logger"
	"log/slog"
)

var log *slog.Logger

type ModuleAward struct{}

func (m *ModuleAward) GetName() string {
	return "Award"
}

func (m *ModuleAward) Init() {
	log = logger.New("Award")
}

func selfInit() {
	m := &ModuleAward{}
	m.Init()
}
