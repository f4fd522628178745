package systemsvc

import (
	"context"
	"errors"
	"fmt"

	"github.com/prasastie/munggah/internal/svc/notifsvc"
	"github.com/prasastie/munggah/internal/upgrade"
	"github.com/prasastie/munggah/pkg/validator"
	"github.com/yusufsyaifudin/ylog"
)

// UpgradeNotificationType is the notification type emitted after a
// completed upgrade run.
const UpgradeNotificationType = "upgrade"

type DefaultServiceConfig struct {
	Coordinator *upgrade.Coordinator  `validate:"required"`
	Versions    upgrade.VersionSource `validate:"required"`

	// Notifier is optional, when nil completed upgrades are not announced.
	Notifier notifsvc.Service `validate:"-"`
}

type DefaultService struct {
	Config DefaultServiceConfig
}

var _ Service = (*DefaultService)(nil)

func NewDefaultService(conf DefaultServiceConfig) (svc *DefaultService, err error) {
	err = validator.Validate(conf)
	if err != nil {
		return nil, err
	}

	svc = &DefaultService{
		Config: conf,
	}
	return
}

func (d *DefaultService) Versions(ctx context.Context) (out OutVersions, err error) {
	code, err := d.Config.Versions.CodeVersions(ctx)
	if err != nil {
		err = fmt.Errorf("cannot read code versions: %w", err)
		return
	}

	running, found, err := d.Config.Versions.RunningVersions(ctx)
	if errors.Is(err, upgrade.ErrStoreUninitialized) {
		err = nil // report as not found
	}

	if err != nil {
		err = fmt.Errorf("cannot read running versions: %w", err)
		return
	}

	out = OutVersions{
		Code:    code,
		Running: running,
		Found:   found,
	}
	return
}

func (d *DefaultService) Upgrade(ctx context.Context) (out OutUpgrade, err error) {
	res, err := d.Config.Coordinator.RunUpgrade(ctx)
	if err != nil {
		return
	}

	out = OutUpgrade{
		Result: res,
	}

	if res.Status != upgrade.StatusCompleted || d.Config.Notifier == nil {
		return
	}

	outNotify, errNotify := d.Config.Notifier.Notify(ctx, notifsvc.InputNotify{
		Type: UpgradeNotificationType,
		Payload: map[string]interface{}{
			"status":       string(res.Status),
			"from_service": res.From.ServiceVersion,
			"from_db":      res.From.DBVersion,
			"to_service":   res.To.ServiceVersion,
			"to_db":        res.To.DBVersion,
		},
	})

	// notification failure never fails the upgrade itself
	if errNotify != nil {
		ylog.Error(ctx, "cannot send upgrade notification", ylog.KV("error", errNotify))
		return
	}

	ylog.Info(ctx, "upgrade notification queued",
		ylog.KV("notification_id", outNotify.NotificationID),
		ylog.KV("url", outNotify.URL),
	)
	return
}
