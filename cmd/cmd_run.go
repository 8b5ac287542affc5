package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gaze-network/uint128"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/internal/config"
	"github.com/sponsornet/settlement-engine/internal/postgres"
	"github.com/sponsornet/settlement-engine/modules/settlement"
	"github.com/sponsornet/settlement-engine/modules/settlement/api/httphandler"
	"github.com/sponsornet/settlement-engine/modules/settlement/assetstore"
	assetstorememory "github.com/sponsornet/settlement-engine/modules/settlement/assetstore/memory"
	"github.com/sponsornet/settlement-engine/modules/settlement/datagateway"
	repositorymemory "github.com/sponsornet/settlement-engine/modules/settlement/repository/memory"
	repositorypg "github.com/sponsornet/settlement-engine/modules/settlement/repository/postgres"
	"github.com/sponsornet/settlement-engine/modules/settlement/usecase"
	"github.com/sponsornet/settlement-engine/pkg/automaxprocs"
	"github.com/sponsornet/settlement-engine/pkg/errorhandler"
	"github.com/sponsornet/settlement-engine/pkg/logger"
	"github.com/sponsornet/settlement-engine/pkg/logger/slogx"
)

const shutdownTimeout = 30 * time.Second

func NewRunCommand() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Start settlement engine service",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := automaxprocs.Init(); err != nil {
				logger.Error("Failed to set GOMAXPROCS", slogx.Error(err))
			}
			return runHandler(cmd, args)
		},
	}

	flags := runCmd.Flags()
	flags.String("datastore", "", "Settlement datastore backend. E.g. `postgres` or `memory`")

	config.BindPFlag("modules.settlement.datastore", flags.Lookup("datastore"))

	return runCmd
}

func runHandler(cmd *cobra.Command, _ []string) error {
	conf := config.Load()
	ctx := cmd.Context()

	injector := do.New()
	do.ProvideValue(injector, conf)

	// Settlement datastore
	do.Provide(injector, func(i do.Injector) (datagateway.SettlementDataGateway, error) {
		conf := do.MustInvoke[config.Config](i)
		switch conf.Modules.Settlement.Datastore {
		case "postgres", "":
			pool, err := postgres.NewPool(ctx, conf.Modules.Settlement.Postgres)
			if err != nil {
				return nil, errors.Wrap(err, "can't create postgres connection pool")
			}
			return repositorypg.NewRepository(pool), nil
		case "memory":
			return repositorymemory.NewRepository(), nil
		}
		return nil, errors.Wrapf(errs.Unsupported, "%q datastore is not supported", conf.Modules.Settlement.Datastore)
	})

	// Asset-storage and payment-token collaborators
	do.Provide(injector, func(i do.Injector) (*assetstorememory.Store, error) {
		return assetstorememory.New(), nil
	})

	// Settlement engine
	do.Provide(injector, func(i do.Injector) (*settlement.Engine, error) {
		conf := do.MustInvoke[config.Config](i)
		gasFee, err := uint128.FromString(conf.Modules.Settlement.GasFeePerCall)
		if err != nil {
			return nil, errors.Wrapf(errs.InvalidArgument, "invalid gas_fee_per_call %q", conf.Modules.Settlement.GasFeePerCall)
		}
		store := do.MustInvoke[*assetstorememory.Store](i)
		var (
			assets   assetstore.Contract        = store
			payments assetstore.PaymentContract = store
		)
		return settlement.NewEngine(
			do.MustInvoke[datagateway.SettlementDataGateway](i),
			assets,
			payments,
			settlement.EngineOptions{
				GasFeePerCall:        gasFee,
				CreationLogRetention: conf.Modules.Settlement.CreationLogRetention,
			},
		), nil
	})

	do.Provide(injector, func(i do.Injector) (*usecase.Usecase, error) {
		return usecase.New(do.MustInvoke[datagateway.SettlementDataGateway](i)), nil
	})

	do.Provide(injector, func(i do.Injector) (*httphandler.HttpHandler, error) {
		return httphandler.New(
			do.MustInvoke[*settlement.Engine](i),
			do.MustInvoke[*usecase.Usecase](i),
		), nil
	})

	// HTTP server
	do.Provide(injector, func(i do.Injector) (*fiber.App, error) {
		app := fiber.New(fiber.Config{
			AppName:      "Settlement Engine",
			ErrorHandler: errorhandler.NewHTTPErrorHandler(),
		})
		app.
			Use(cors.New()).
			Use(requestid.New()).
			Use(fiberrecover.New(fiberrecover.Config{
				EnableStackTrace: true,
				StackTraceHandler: func(c *fiber.Ctx, e interface{}) {
					buf := make([]byte, 1024)
					buf = buf[:runtime.Stack(buf, false)]
					logger.ErrorContext(c.UserContext(), "Something went wrong, panic in http handler", errors.Errorf("%v", e), slog.String("stacktrace", string(buf)))
				},
			}))

		// Health check
		app.Get("/", func(c *fiber.Ctx) error {
			return errors.WithStack(c.SendStatus(http.StatusOK))
		})

		handler := do.MustInvoke[*httphandler.HttpHandler](i)
		if err := handler.Mount(app); err != nil {
			return nil, errors.Wrap(err, "can't mount settlement API")
		}

		return app, nil
	})

	app, err := do.Invoke[*fiber.App](injector)
	if err != nil {
		return errors.Wrap(err, "failed to initialize service")
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.InfoContext(ctx, "Started HTTP server", slog.Int("port", conf.HTTPServer.Port))
		if err := app.Listen(fmt.Sprintf(":%d", conf.HTTPServer.Port)); err != nil {
			return errors.Wrap(err, "error during running HTTP server")
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.InfoContext(ctx, "Shutting down...")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			return errors.Wrap(err, "error during shutting down HTTP server")
		}
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return errors.WithStack(err)
	}

	if err := injector.Shutdown(); err != nil {
		logger.PanicContext(ctx, "Failed while gracefully shutting down", slogx.Error(err))
	}

	return nil
}
