package review

import (
	"competition-portal/internal/global/logger"
	"log/slog"
)

var log *slog.Logger

type ModuleReview struct{}

func (m *ModuleReview) GetName() string {
	return "Review"
}

func (m *ModuleReview) Init() {
	log = logger.New("Review")
}

func selfInit() {
	m := &ModuleReview{}
	m.Init()
}
