package notifsvc

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prasastie/munggah/pkg/uid"
	"github.com/prasastie/munggah/pkg/validator"
	"github.com/prasastie/munggah/pkg/worker"
	"github.com/satori/uuid"
	"github.com/segmentio/encoding/json"
	"github.com/yusufsyaifudin/ylog"
)

// GeneralWebhookKey is the fallback destination used when no webhook is
// registered for a specific notification type.
const GeneralWebhookKey = "general"

// typeURLVar is replaced in webhook URLs with the notification type.
const typeURLVar = "<notification_type>"

// WebhookTarget is one configured destination endpoint.
type WebhookTarget struct {
	URL  string `yaml:"url" validate:"required,url"`
	User string `yaml:"user" validate:"-"`
	Pass string `yaml:"pass" validate:"-"`
}

type WebhookServiceConfig struct {
	// Webhooks maps notification type (or GeneralWebhookKey) to a target.
	Webhooks map[string]WebhookTarget `validate:"required"`

	HTTPClient *http.Client   `validate:"required"`
	Worker     worker.Service `validate:"required"`
	UID        uid.UID        `validate:"required"`
}

// WebhookService posts notification envelopes as JSON. Delivery runs on the
// shared worker pool so callers never block on the remote endpoint.
type WebhookService struct {
	Config WebhookServiceConfig
}

var _ Service = (*WebhookService)(nil)

func NewWebhookService(conf WebhookServiceConfig) (svc *WebhookService, err error) {
	err = validator.Validate(conf)
	if err != nil {
		return nil, err
	}

	svc = &WebhookService{
		Config: conf,
	}
	return
}

func (w *WebhookService) Notify(ctx context.Context, in InputNotify) (out OutNotify, err error) {
	err = validator.Validate(in)
	if err != nil {
		err = fmt.Errorf("%w: %s", ErrValidation, err)
		return
	}

	target, ok := w.Config.Webhooks[in.Type]
	if !ok {
		target, ok = w.Config.Webhooks[GeneralWebhookKey]
	}

	if !ok {
		err = fmt.Errorf("%w: type '%s'", ErrNoWebhook, in.Type)
		return
	}

	envelope := Envelope{
		NotificationID: uuid.NewV4().String(),
		Type:           in.Type,
		CreatedAt:      time.Now().UTC().UnixMicro(),
		Payload:        in.Payload,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		err = fmt.Errorf("cannot marshal notification envelope: %w", err)
		return
	}

	jobID, err := w.Config.UID.NextID()
	if err != nil {
		err = fmt.Errorf("cannot generate delivery job id: %w", err)
		return
	}

	url := strings.ReplaceAll(target.URL, typeURLVar, in.Type)
	job := &deliverJob{
		id: jobID,

		// Delivery outlives the caller (an HTTP handler may already have
		// returned), so the job keeps the caller's trace values but not
		// its cancellation.
		ctx:    context.WithoutCancel(ctx),
		client: w.Config.HTTPClient,
		url:    url,
		user:   target.User,
		pass:   target.Pass,
		body:   body,
	}

	w.Config.Worker.AddJob(job)

	out = OutNotify{
		NotificationID: envelope.NotificationID,
		QueueID:        jobID,
		URL:            url,
	}
	return
}

// deliverJob posts one envelope to one webhook endpoint.
type deliverJob struct {
	id     uint64
	ctx    context.Context
	client *http.Client
	url    string
	user   string
	pass   string
	body   []byte
}

var _ worker.Job = (*deliverJob)(nil)

func (d *deliverJob) ID() uint64 {
	return d.id
}

func (d *deliverJob) Context() context.Context {
	return d.ctx
}

func (d *deliverJob) PreExecute() error {
	return nil
}

func (d *deliverJob) Execute() error {
	req, err := http.NewRequestWithContext(d.ctx, http.MethodPost, d.url, bytes.NewReader(d.body))
	if err != nil {
		return fmt.Errorf("cannot build webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if d.user != "" {
		req.SetBasicAuth(d.user, d.pass)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook post error: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}

	return nil
}

func (d *deliverJob) PostExecute(err error) {
	if err != nil {
		ylog.Error(d.ctx, "webhook delivery failed", ylog.KV("url", d.url), ylog.KV("error", err))
		return
	}

	ylog.Debug(d.ctx, "webhook delivered", ylog.KV("url", d.url))
}
