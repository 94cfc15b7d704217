package app

import (
	"github.com/yungbote/signage-backend/internal/auth"
	httpMW "github.com/yungbote/signage-backend/internal/http/middleware"
	"github.com/yungbote/signage-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireMiddleware(log *logger.Logger, authService auth.Service) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, authService),
	}
}
