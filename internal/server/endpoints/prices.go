package endpoints

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Cank256/market-mail/internal/api"
	"github.com/Cank256/market-mail/internal/prices"
	"github.com/Cank256/market-mail/internal/svcctx"
)

// PricesResponse is a page of submissions.
type PricesResponse struct {
	Submissions []prices.Submission `json:"submissions"`
	Total       int                 `json:"total"`
}

// ListPricesEndpoint handles GET /api/prices.
type ListPricesEndpoint struct{}

func (e *ListPricesEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/prices", e.handler
}

func (e *ListPricesEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		List submissions
//	@Description	Stored submissions, newest first, without their items
//	@Tags			prices
//	@Produce		json
//	@Param			market		query		string	false	"Filter by market (case-insensitive)"
//	@Param			submitter	query		string	false	"Filter by submitter email"
//	@Param			from		query		string	false	"Earliest submission date"
//	@Param			to			query		string	false	"Latest submission date"
//	@Param			limit		query		int		false	"Max results (default 100)"
//	@Param			offset		query		int		false	"Result offset"
//	@Success		200			{object}	PricesResponse
//	@Failure		400			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Router			/api/prices [get]
func (e *ListPricesEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.PricesFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "price store not initialized")
		return
	}

	q := r.URL.Query()
	filter := prices.ListFilter{
		Market:    q.Get("market"),
		Submitter: q.Get("submitter"),
	}
	var err error
	if filter.Limit, err = intParam(q, "limit", prices.DefaultLimit); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.Offset, err = intParam(q, "offset", 0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.From, err = dateParam(q, "from"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.To, err = dateParam(q, "to"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	filter.To = endOfDay(filter.To)

	subs, err := store.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, PricesResponse{Submissions: subs, Total: len(subs)})
}

func (e *ListPricesEndpoint) Command(getServerURL func() string) *cobra.Command {
	var marketName, submitter, from, to string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			for k, v := range map[string]string{
				"market":    marketName,
				"submitter": submitter,
				"from":      from,
				"to":        to,
			} {
				if v != "" {
					params.Set(k, v)
				}
			}
			if limit > 0 {
				params.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				params.Set("offset", strconv.Itoa(offset))
			}

			path := "/api/prices"
			if len(params) > 0 {
				path += "?" + params.Encode()
			}
			client := api.NewClient(getServerURL())
			var resp PricesResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&marketName, "market", "", "Filter by market")
	cmd.Flags().StringVar(&submitter, "submitter", "", "Filter by submitter email")
	cmd.Flags().StringVar(&from, "from", "", "Earliest submission date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Latest submission date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&limit, "limit", prices.DefaultLimit, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Result offset")
	return cmd
}

// GetPriceEndpoint handles GET /api/prices/{id}.
type GetPriceEndpoint struct{}

func (e *GetPriceEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/prices/{id}", e.handler
}

func (e *GetPriceEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Get a submission with its price items
//	@Tags		prices
//	@Produce	json
//	@Param		id	path		string	true	"Submission ID"
//	@Success	200	{object}	prices.Submission
//	@Failure	404	{object}	ErrorResponse
//	@Failure	500	{object}	ErrorResponse
//	@Router		/api/prices/{id} [get]
func (e *GetPriceEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.PricesFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "price store not initialized")
		return
	}
	sub, err := store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, prices.ErrNotFound) {
		writeError(w, http.StatusNotFound, "submission not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (e *GetPriceEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get a submission with its price items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp prices.Submission
			if err := client.Get(cmd.Context(), "/api/prices/"+url.PathEscape(args[0]), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
