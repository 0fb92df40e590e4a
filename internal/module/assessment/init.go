package assessment

import (
	"competition-portal/internal/global/logger"
	"log/slog"
)

var log *slog.Logger

type ModuleAssessment struct{}

func (m *ModuleAssessment) GetName() string {
	return "Assessment"
}

func (m *ModuleAssessment) Init() {
	log = logger.New("Assessment")
}

func selfInit() {
	m := &ModuleAssessment{}
	m.Init()
}
