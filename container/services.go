package container

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prasastie/munggah/assets"
	"github.com/prasastie/munggah/assets/upgrades/pgsqlcatalog"
	"github.com/prasastie/munggah/internal/svc/accountrepo"
	"github.com/prasastie/munggah/internal/svc/authzsvc"
	"github.com/prasastie/munggah/internal/svc/notifsvc"
	"github.com/prasastie/munggah/internal/svc/systemsvc"
	"github.com/prasastie/munggah/internal/svc/versionrepo"
	"github.com/prasastie/munggah/internal/upgrade"
	"github.com/prasastie/munggah/pkg/cache"
	"github.com/prasastie/munggah/pkg/httplog"
	"github.com/prasastie/munggah/pkg/uid"
	"github.com/prasastie/munggah/pkg/worker"
)

const (
	defaultCacheExpiry  = time.Minute
	defaultNotifBuffer  = 100
	defaultNotifWorkers = 2
)

type Services interface {
	UIDGen() uid.UID
	System() systemsvc.Service
	Authz() authzsvc.Service
	Account() accountrepo.Repo
}

type ServicesImpl struct {
	uidGen      uid.UID
	system      systemsvc.Service
	authz       authzsvc.Service
	accountRepo accountrepo.Repo
	jobWorker   *worker.Worker
}

var _ Services = (*ServicesImpl)(nil)

func SetupServices(svcCfg ConfigServices, repos Repositories) (svc *ServicesImpl, err error) {
	if repos == nil {
		err = fmt.Errorf("nil repositories on services preparation")
		return
	}

	uidGen, err := uid.NewSonyflake(time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		err = fmt.Errorf("services cannot prepare uid generator: %w", err)
		return
	}

	// ** Prepare account repo with cache decorator at once
	accountRepo, err := setupAccountRepo(svcCfg.Auth, repos)
	if err != nil {
		return
	}

	// ** Prepare authorization service at once
	authzService, err := authzsvc.NewDefaultService(authzsvc.DefaultServiceConfig{
		AccountRepo: accountRepo,
		JWTSecret:   svcCfg.Auth.JWTSecret,
	})
	if err != nil {
		err = fmt.Errorf("services cannot prepare authz service: %w", err)
		return
	}

	// ** Prepare notification service at once, webhook delivery runs on a
	// shared worker pool
	var notifier notifsvc.Service
	var jobWorker *worker.Worker
	if len(svcCfg.Notification.Webhooks) > 0 {
		maxBuffer := svcCfg.Notification.MaxBuffer
		if maxBuffer <= 0 {
			maxBuffer = defaultNotifBuffer
		}

		maxParallel := svcCfg.Notification.MaxParallel
		if maxParallel <= 0 {
			maxParallel = defaultNotifWorkers
		}

		jobWorker = worker.NewWorker(maxParallel, maxBuffer)

		var httpClient *http.Client
		httpClient, err = httplog.New()
		if err != nil {
			err = fmt.Errorf("services cannot prepare logging http client: %w", err)
			return
		}

		webhooks := map[string]notifsvc.WebhookTarget{}
		for notifType, hook := range svcCfg.Notification.Webhooks {
			webhooks[notifType] = notifsvc.WebhookTarget{
				URL:  hook.URL,
				User: hook.User,
				Pass: hook.Pass,
			}
		}

		notifier, err = notifsvc.NewWebhookService(notifsvc.WebhookServiceConfig{
			Webhooks:   webhooks,
			HTTPClient: httpClient,
			Worker:     jobWorker,
			UID:        uidGen,
		})
		if err != nil {
			err = fmt.Errorf("services cannot prepare notification service: %w", err)
			return
		}
	}

	// ** Prepare upgrade coordinator at once
	versionRepo, err := repos.VersionRepo(svcCfg.Upgrade.DBLabel)
	if err != nil {
		err = fmt.Errorf("services cannot get version repo: %w", err)
		return
	}

	versionSource, err := versionrepo.NewSource(versionrepo.SourceConfig{
		Repo:           versionRepo,
		ServiceName:    assets.ServiceName,
		ServiceVersion: assets.Version,
		DBVersion:      assets.DBVersion,
	})
	if err != nil {
		err = fmt.Errorf("services cannot prepare version source: %w", err)
		return
	}

	locker, err := repos.Locker(svcCfg.Upgrade.DBLabel)
	if err != nil {
		err = fmt.Errorf("services cannot get db locker: %w", err)
		return
	}

	sqlConn, err := repos.SqlxConn(svcCfg.Upgrade.DBLabel)
	if err != nil {
		err = fmt.Errorf("services cannot get sql connection for upgrade steps: %w", err)
		return
	}

	coordinator, err := upgrade.New(upgrade.Config{
		Versions: versionSource,
		Locker:   locker,
		Store:    versionSource,
		Steps:    pgsqlcatalog.Steps(sqlConn),
		LockWait: time.Duration(svcCfg.Upgrade.LockWaitSeconds) * time.Second,
	})
	if err != nil {
		err = fmt.Errorf("services cannot prepare upgrade coordinator: %w", err)
		return
	}

	systemService, err := systemsvc.NewDefaultService(systemsvc.DefaultServiceConfig{
		Coordinator: coordinator,
		Versions:    versionSource,
		Notifier:    notifier,
	})
	if err != nil {
		err = fmt.Errorf("services cannot prepare system service: %w", err)
		return
	}

	svc = &ServicesImpl{
		uidGen:      uidGen,
		system:      systemService,
		authz:       authzService,
		accountRepo: accountRepo,
		jobWorker:   jobWorker,
	}

	return svc, nil
}

func setupAccountRepo(authCfg ConfigServiceAuth, repos Repositories) (repo accountrepo.Repo, err error) {
	repo, err = repos.AccountRepo(authCfg.DBLabel)
	if err != nil {
		err = fmt.Errorf("services cannot get account repo: %w", err)
		return
	}

	var cacheBackend cache.Cache
	switch authCfg.Cache.Mode {
	case "redis":
		redisClient := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    authCfg.Cache.RedisAddress,
			Password: authCfg.Cache.RedisPassword,
		})

		cacheBackend, err = cache.NewRedis(cache.RedisConfig{DB: redisClient})
		if err != nil {
			err = fmt.Errorf("services cannot prepare redis cache: %w", err)
			return
		}

	default:
		cacheBackend, err = cache.NewInMemory()
		if err != nil {
			err = fmt.Errorf("services cannot prepare inmemory cache: %w", err)
			return
		}
	}

	expiry := time.Duration(authCfg.Cache.ExpirySeconds) * time.Second
	if expiry <= 0 {
		expiry = defaultCacheExpiry
	}

	repo, err = accountrepo.NewCached(accountrepo.CachedConfig{
		Persistent:     repo,
		CacheExpiry:    expiry,
		CachePrefixKey: "account",
		Cache:          cacheBackend,
	})
	if err != nil {
		err = fmt.Errorf("services cannot prepare cached account repo: %w", err)
		return
	}

	return
}

func (s *ServicesImpl) UIDGen() uid.UID {
	return s.uidGen
}

func (s *ServicesImpl) System() systemsvc.Service {
	return s.system
}

func (s *ServicesImpl) Authz() authzsvc.Service {
	return s.authz
}

func (s *ServicesImpl) Account() accountrepo.Repo {
	return s.accountRepo
}

// Worker return the shared job worker, nil when notifications are disabled.
func (s *ServicesImpl) Worker() *worker.Worker {
	return s.jobWorker
}
