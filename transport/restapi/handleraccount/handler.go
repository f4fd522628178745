package handleraccount

import (
	"fmt"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/prasastie/munggah/internal/svc/accountrepo"
	"github.com/prasastie/munggah/pkg/respbuilder"
	"github.com/prasastie/munggah/pkg/validator"
)

const defaultListLimit = 10

type HandlerConfig struct {
	AccountRepo accountrepo.Repo `validate:"required"`
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

type AccountEntity struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Type     string   `json:"type"`
	Grants   []string `json:"grants"`
}

type ListAccountsReq struct {
	Limit   int64 `schema:"limit"`
	AfterID int64 `schema:"after_id"`
}

type ListAccountsResp struct {
	Total int64           `json:"total"`
	Items []AccountEntity `json:"items"`
}

// ListAccounts list admin accounts with cursor pagination.
// Path     : GET /api/v1/accounts?limit=10&after_id=0
// Response : ListAccountsResp
func (h *Handler) ListAccounts() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		err := r.ParseForm()
		if err != nil {
			err = fmt.Errorf("failed parse query params: %w", err)
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		query := ListAccountsReq{}
		queryDec := schema.NewDecoder()
		err = queryDec.Decode(&query, r.Form)
		if err != nil {
			err = fmt.Errorf("failed decode query params: %w", err)
			resp := respbuilder.Error(ctx, respbuilder.ErrValidation, err)
			respbuilder.WriteJSON(http.StatusBadRequest, w, r, resp)
			return
		}

		if query.Limit <= 0 {
			query.Limit = defaultListLimit
		}

		listOut, err := h.Config.AccountRepo.List(ctx, accountrepo.InputList{
			Limit:   query.Limit,
			AfterID: query.AfterID,
		})
		if err != nil {
			resp := respbuilder.Error(ctx, respbuilder.ErrUnhandled, err)
			respbuilder.WriteJSON(http.StatusInternalServerError, w, r, resp)
			return
		}

		items := make([]AccountEntity, 0, len(listOut.Accounts))
		for _, account := range listOut.Accounts {
			items = append(items, AccountEntity{
				ID:       account.ID,
				Username: account.Username,
				Type:     account.Type,
				Grants:   account.Grants,
			})
		}

		respBody := ListAccountsResp{
			Total: listOut.Total,
			Items: items,
		}

		resp := respbuilder.Success(ctx, respBody)
		respbuilder.WriteJSON(http.StatusOK, w, r, resp)
	}
}
