package fx

import (
	"partyfinder/internal/bot"
	"partyfinder/internal/config"
	"partyfinder/internal/database"
	"partyfinder/internal/logger"
	"partyfinder/internal/repository"
	"partyfinder/internal/server"
	"partyfinder/internal/service"
	"partyfinder/internal/session"
	"partyfinder/internal/telegram"

	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(config.Load),
	fx.Provide(logger.New),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewProfileRepository),
	fx.Provide(repository.NewSearchLogRepository),
	// sessions
	fx.Provide(session.NewManager),
	// svc
	fx.Provide(service.NewProfileService),
	fx.Provide(service.NewSearchService),
	// transport + conversation
	fx.Provide(telegram.NewClient),
	fx.Provide(bot.NewRenderer),
	fx.Provide(bot.NewMachine),
	fx.Provide(bot.NewDispatcher),
	// ops server
	fx.Provide(server.NewWebServer),
)
