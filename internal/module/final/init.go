package final

import (
	"competition-portal/internal/global/logger"
	"log/slog"
)

var log *slog.Logger

type ModuleFinal struct{}

func (m *ModuleFinal) GetName() string {
	return "Final"
}

func (m *ModuleFinal) Init() {
	log = logger.New("Final")
}

func selfInit() {
	m := &ModuleFinal{}
	m.Init()
}
