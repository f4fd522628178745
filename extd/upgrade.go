package extd

import (
	"context"

	"github.com/prasastie/munggah/container"
	"github.com/prasastie/munggah/internal/upgrade"
	"github.com/yusufsyaifudin/ylog"
)

// RunUpgrade run the schema upgrade once and return its result. Intended for
// deploy pipelines: run before rolling the new service version out.
func RunUpgrade(ctx context.Context, cfg container.Config) (res upgrade.Result, err error) {

	if ctx == nil {
		ctx = context.TODO()
	}

	ctx = setupLog(ctx)

	err = setupTracer(ctx, cfg.Tracer)
	if err != nil {
		return
	}

	ylog.Info(ctx, "container preparation: starting")
	var repositories container.Repositories
	repositories, err = container.SetupRepositories(cfg.DatabaseResources)
	defer func() {
		if repositories == nil {
			return
		}

		if _err := repositories.Close(); _err != nil {
			ylog.Error(ctx, "closing container: failed", ylog.KV("error", _err))
		}
	}()

	if err != nil {
		ylog.Error(ctx, "container preparation: failed", ylog.KV("error", err))
		return
	}

	services, err := container.SetupServices(cfg.Services, repositories)
	if err != nil {
		ylog.Error(ctx, "service preparation: failed", ylog.KV("error", err))
		return
	}

	out, err := services.System().Upgrade(ctx)
	if err != nil {
		ylog.Error(ctx, "upgrade run: failed", ylog.KV("error", err))
		return
	}

	res = out.Result
	ylog.Info(ctx, "upgrade run: done",
		ylog.KV("status", string(res.Status)),
		ylog.KV("from_db", res.From.DBVersion),
		ylog.KV("to_db", res.To.DBVersion),
	)

	// flush queued webhook deliveries before the process exits
	if jobWorker := services.Worker(); jobWorker != nil {
		jobWorker.Done()
	}

	return
}
