package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/signage-backend/internal/data/repos/state"
	"github.com/yungbote/signage-backend/internal/platform/logger"
)

type Repos struct {
	State state.Store
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		State: state.NewGormStore(db, log),
	}
}
