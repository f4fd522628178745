package handlersystem

import (
	"errors"
	"net/http"

	"github.com/prasastie/munggah/internal/svc/systemsvc"
	"github.com/prasastie/munggah/internal/upgrade"
	"github.com/prasastie/munggah/pkg/respbuilder"
	"github.com/prasastie/munggah/pkg/validator"
)

type HandlerConfig struct {
	SystemService systemsvc.Service `validate:"required"`
}

type Handler struct {
	Config HandlerConfig
}

func NewHandler(conf HandlerConfig) (*Handler, error) {
	err := validator.Validate(conf)
	if err != nil {
		return nil, err
	}

	return &Handler{Config: conf}, nil
}

type VersionsResp struct {
	Code    upgrade.VersionPair  `json:"code"`
	Running *upgrade.VersionPair `json:"running"` // null when the db has no record yet
}

// Versions report the compiled-in version pair and the pair recorded in the
// database.
// Path     : GET /system/versions
// Response : VersionsResp
func (h *Handler) Versions() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		out, err := h.Config.SystemService.Versions(ctx)
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		respBody := VersionsResp{
			Code: out.Code,
		}
		if out.Found {
			running := out.Running
			respBody.Running = &running
		}

		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}
}

type UpgradeResp struct {
	Status string              `json:"status"`
	From   upgrade.VersionPair `json:"from"`
	To     upgrade.VersionPair `json:"to"`
}

// Upgrade run the schema upgrade against the configured database.
// Path     : POST /system/upgrade
// Response : UpgradeResp
func (h *Handler) Upgrade() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		out, err := h.Config.SystemService.Upgrade(ctx)
		if errors.Is(err, upgrade.ErrDowngrade) {
			resp := respbuilder.Error(ctx, respbuilder.ErrUpgradeFailed, err)
			respbuilder.WriteJSON(http.StatusConflict, w, r, resp)
			return
		}

		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUpgradeFailed, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		respBody := UpgradeResp{
			Status: string(out.Result.Status),
			From:   out.Result.From,
			To:     out.Result.To,
		}

		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}
}
