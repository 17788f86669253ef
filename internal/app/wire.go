//go:build wireinject

package app

import (
	"context"

	"github.com/google/wire"

	"github.com/dontpanicw/ClinicMedia/config"
	"github.com/dontpanicw/ClinicMedia/internal/adapter/repository/admins"
	"github.com/dontpanicw/ClinicMedia/internal/auth"
	"github.com/dontpanicw/ClinicMedia/internal/port"
	"github.com/dontpanicw/ClinicMedia/internal/preset"
	"github.com/dontpanicw/ClinicMedia/internal/processor"
	"github.com/dontpanicw/ClinicMedia/internal/publisher"
	"github.com/dontpanicw/ClinicMedia/internal/usecases"
)

func InitializeApp(ctx context.Context, cfg *config.Config) (*App, error) {
	wire.Build(
		// storage and accounts
		InitAdmins,
		wire.Bind(new(port.AdminRepository), new(*admins.AdminDAO)),
		InitBlobStore,
		InitAssets,
		InitEvents,

		// pipeline
		InitPresets,
		wire.Bind(new(port.PresetResolver), new(*preset.Table)),
		processor.NewImageProcessor,
		wire.Bind(new(port.Transcoder), new(*processor.ImageProcessor)),
		InitPublisher,
		wire.Bind(new(port.Publisher), new(*publisher.BlobPublisher)),
		InitUsecases,
		wire.Bind(new(port.MediaUsecases), new(*usecases.MediaUsecases)),

		// web
		InitSessions,
		wire.Bind(new(port.SessionManager), new(*auth.CookieSessionManager)),
		InitServerOptions,
		InitServer,

		NewApp,
	)
	return nil, nil
}
