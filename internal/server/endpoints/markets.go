package endpoints

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Cank256/market-mail/internal/api"
	"github.com/Cank256/market-mail/internal/prices"
	"github.com/Cank256/market-mail/internal/report"
	"github.com/Cank256/market-mail/internal/svcctx"
)

// MarketsResponse lists known markets.
type MarketsResponse struct {
	Markets []string `json:"markets"`
	Total   int      `json:"total"`
}

// MarketHistoryResponse is a page of a market's submissions.
type MarketHistoryResponse struct {
	Market      string              `json:"market"`
	Submissions []prices.Submission `json:"submissions"`
	Pagination  Pagination          `json:"pagination"`
}

// Pagination describes a page of results.
type Pagination struct {
	Page  int  `json:"page"`
	Limit int  `json:"limit"`
	More  bool `json:"hasMore"`
}

// ProductHistoryResponse holds a product's recent prices in one market.
type ProductHistoryResponse struct {
	Market  string        `json:"market"`
	Product string        `json:"product"`
	Prices  []prices.Item `json:"prices"`
}

// ProductTrendsResponse holds trends per market for the requested products.
type ProductTrendsResponse struct {
	Products []string              `json:"products"`
	Days     int                   `json:"days"`
	Markets  []report.MarketTrends `json:"markets"`
}

// ListMarketsEndpoint handles GET /api/markets.
type ListMarketsEndpoint struct{}

func (e *ListMarketsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/markets", e.handler
}

func (e *ListMarketsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	List markets
//	@Tags		markets
//	@Produce	json
//	@Success	200	{object}	MarketsResponse
//	@Failure	500	{object}	ErrorResponse
//	@Router		/api/markets [get]
func (e *ListMarketsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.PricesFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "price store not initialized")
		return
	}
	markets, err := store.Markets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if markets == nil {
		markets = []string{}
	}
	writeJSON(w, http.StatusOK, MarketsResponse{Markets: markets, Total: len(markets)})
}

func (e *ListMarketsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List markets with submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp MarketsResponse
			if err := client.Get(cmd.Context(), "/api/markets", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// LatestMarketEndpoint handles GET /api/markets/{market}/latest.
type LatestMarketEndpoint struct{}

func (e *LatestMarketEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/markets/{market}/latest", e.handler
}

func (e *LatestMarketEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Latest submission for a market
//	@Tags		markets
//	@Produce	json
//	@Param		market	path		string	true	"Market name"
//	@Success	200		{object}	prices.Submission
//	@Failure	404		{object}	ErrorResponse
//	@Failure	500		{object}	ErrorResponse
//	@Router		/api/markets/{market}/latest [get]
func (e *LatestMarketEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.PricesFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "price store not initialized")
		return
	}
	name := r.PathValue("market")
	sub, err := store.Latest(r.Context(), name)
	if errors.Is(err, prices.ErrNotFound) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no data found for market %q", name))
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (e *LatestMarketEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "latest <market>",
		Short: "Show a market's latest submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp prices.Submission
			if err := client.Get(cmd.Context(), "/api/markets/"+url.PathEscape(args[0])+"/latest", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// MarketHistoryEndpoint handles GET /api/markets/{market}/history.
type MarketHistoryEndpoint struct{}

func (e *MarketHistoryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/markets/{market}/history", e.handler
}

func (e *MarketHistoryEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Submission history for a market
//	@Tags		markets
//	@Produce	json
//	@Param		market	path		string	true	"Market name"
//	@Param		page	query		int		false	"Page number (default 1)"
//	@Param		limit	query		int		false	"Page size (default 10)"
//	@Param		from	query		string	false	"Earliest submission date"
//	@Param		to		query		string	false	"Latest submission date"
//	@Success	200		{object}	MarketHistoryResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	500		{object}	ErrorResponse
//	@Router		/api/markets/{market}/history [get]
func (e *MarketHistoryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.PricesFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "price store not initialized")
		return
	}

	q := r.URL.Query()
	page, err := intParam(q, "page", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if page < 1 {
		page = 1
	}
	limit, err := intParam(q, "limit", 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit == 0 {
		limit = 10
	}
	from, err := dateParam(q, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := dateParam(q, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name := r.PathValue("market")
	// One extra row tells whether another page exists.
	subs, err := store.List(r.Context(), prices.ListFilter{
		Market: name,
		From:   from,
		To:     endOfDay(to),
		Limit:  limit + 1,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	more := len(subs) > limit
	if more {
		subs = subs[:limit]
	}
	writeJSON(w, http.StatusOK, MarketHistoryResponse{
		Market:      name,
		Submissions: subs,
		Pagination:  Pagination{Page: page, Limit: limit, More: more},
	})
}

func (e *MarketHistoryEndpoint) Command(getServerURL func() string) *cobra.Command {
	var page, limit int
	var from, to string
	cmd := &cobra.Command{
		Use:   "history <market>",
		Short: "List a market's submissions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			params.Set("page", strconv.Itoa(page))
			params.Set("limit", strconv.Itoa(limit))
			if from != "" {
				params.Set("from", from)
			}
			if to != "" {
				params.Set("to", to)
			}
			client := api.NewClient(getServerURL())
			var resp MarketHistoryResponse
			path := "/api/markets/" + url.PathEscape(args[0]) + "/history?" + params.Encode()
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "Page size")
	cmd.Flags().StringVar(&from, "from", "", "Earliest submission date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Latest submission date (YYYY-MM-DD)")
	return cmd
}

// MarketSummaryEndpoint handles GET /api/markets/{market}/summary.
type MarketSummaryEndpoint struct{}

func (e *MarketSummaryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/markets/{market}/summary", e.handler
}

func (e *MarketSummaryEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Price summary for a market
//	@Description	Per product average, min and max. Uses from/to when given, otherwise the last days.
//	@Tags			markets
//	@Produce		json
//	@Param			market	path		string	true	"Market name"
//	@Param			days	query		int		false	"Look-back window in days (default 30)"
//	@Param			from	query		string	false	"Window start date"
//	@Param			to		query		string	false	"Window end date"
//	@Success		200		{object}	report.Summary
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Router			/api/markets/{market}/summary [get]
func (e *MarketSummaryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	reports := svcctx.ReportsFrom(r.Context())
	if reports == nil {
		writeError(w, http.StatusServiceUnavailable, "report service not initialized")
		return
	}

	q := r.URL.Query()
	days, err := intParam(q, "days", report.DefaultDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, err := dateParam(q, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := dateParam(q, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if from.IsZero() && to.IsZero() {
		from, to = reports.Window(days)
	}

	name := r.PathValue("market")
	summary, err := reports.Summary(r.Context(), name, from, endOfDay(to))
	if errors.Is(err, report.ErrNoData) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no data found for market %q in the specified period", name))
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (e *MarketSummaryEndpoint) Command(getServerURL func() string) *cobra.Command {
	var days int
	var from, to string
	cmd := &cobra.Command{
		Use:   "summary <market>",
		Short: "Summarize a market's prices",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			if days > 0 {
				params.Set("days", strconv.Itoa(days))
			}
			if from != "" {
				params.Set("from", from)
			}
			if to != "" {
				params.Set("to", to)
			}
			path := "/api/markets/" + url.PathEscape(args[0]) + "/summary"
			if len(params) > 0 {
				path += "?" + params.Encode()
			}
			client := api.NewClient(getServerURL())
			var resp report.Summary
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Look-back window in days")
	cmd.Flags().StringVar(&from, "from", "", "Window start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Window end date (YYYY-MM-DD)")
	return cmd
}

// ProductTrendEndpoint handles GET /api/markets/{market}/products/{product}/trend.
type ProductTrendEndpoint struct{}

func (e *ProductTrendEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/markets/{market}/products/{product}/trend", e.handler
}

func (e *ProductTrendEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Daily price trend for a product
//	@Tags		markets
//	@Produce	json
//	@Param		market	path		string	true	"Market name"
//	@Param		product	path		string	true	"Product name"
//	@Param		days	query		int		false	"Look-back window in days (default 30)"
//	@Success	200		{object}	report.Trend
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Failure	500		{object}	ErrorResponse
//	@Router		/api/markets/{market}/products/{product}/trend [get]
func (e *ProductTrendEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	reports := svcctx.ReportsFrom(r.Context())
	if reports == nil {
		writeError(w, http.StatusServiceUnavailable, "report service not initialized")
		return
	}
	days, err := intParam(r.URL.Query(), "days", report.DefaultDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name, product := r.PathValue("market"), r.PathValue("product")
	trend, err := reports.Trend(r.Context(), name, product, days)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if trend == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no data found for %s in market %q", product, name))
		return
	}
	writeJSON(w, http.StatusOK, trend)
}

func (e *ProductTrendEndpoint) Command(getServerURL func() string) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "trend <market> <product>",
		Short: "Show a product's daily price trend",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/markets/%s/products/%s/trend?days=%d",
				url.PathEscape(args[0]), url.PathEscape(args[1]), days)
			client := api.NewClient(getServerURL())
			var resp report.Trend
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVar(&days, "days", report.DefaultDays, "Look-back window in days")
	return cmd
}

// ProductHistoryEndpoint handles GET /api/markets/{market}/products/{product}/history.
type ProductHistoryEndpoint struct{}

func (e *ProductHistoryEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/markets/{market}/products/{product}/history", e.handler
}

func (e *ProductHistoryEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Recent prices for a product
//	@Tags		markets
//	@Produce	json
//	@Param		market	path		string	true	"Market name"
//	@Param		product	path		string	true	"Product name"
//	@Param		limit	query		int		false	"Max results (default 30)"
//	@Success	200		{object}	ProductHistoryResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	500		{object}	ErrorResponse
//	@Router		/api/markets/{market}/products/{product}/history [get]
func (e *ProductHistoryEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	store := svcctx.PricesFrom(r.Context())
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "price store not initialized")
		return
	}
	limit, err := intParam(r.URL.Query(), "limit", 30)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	name, product := r.PathValue("market"), r.PathValue("product")
	items, err := store.History(r.Context(), name, product, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ProductHistoryResponse{Market: name, Product: product, Prices: items})
}

func (e *ProductHistoryEndpoint) Command(getServerURL func() string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "prices <market> <product>",
		Short: "List a product's recent prices",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/markets/%s/products/%s/history?limit=%d",
				url.PathEscape(args[0]), url.PathEscape(args[1]), limit)
			client := api.NewClient(getServerURL())
			var resp ProductHistoryResponse
			if err := client.Get(cmd.Context(), path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 30, "Max results")
	return cmd
}

// ProductTrendsEndpoint handles GET /api/trends/products.
type ProductTrendsEndpoint struct{}

func (e *ProductTrendsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/trends/products", e.handler
}

func (e *ProductTrendsEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Compare product trends across markets
//	@Tags		markets
//	@Produce	json
//	@Param		products	query		string	true	"Comma separated product names"
//	@Param		days		query		int		false	"Look-back window in days (default 30)"
//	@Success	200			{object}	ProductTrendsResponse
//	@Failure	400			{object}	ErrorResponse
//	@Failure	500			{object}	ErrorResponse
//	@Router		/api/trends/products [get]
func (e *ProductTrendsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	reports := svcctx.ReportsFrom(r.Context())
	if reports == nil {
		writeError(w, http.StatusServiceUnavailable, "report service not initialized")
		return
	}
	q := r.URL.Query()
	products := listParam(q, "products")
	if len(products) == 0 {
		writeError(w, http.StatusBadRequest, "products parameter is required")
		return
	}
	days, err := intParam(q, "days", report.DefaultDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if days == 0 {
		days = report.DefaultDays
	}

	trends, err := reports.Trends(r.Context(), products, days)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if trends == nil {
		trends = []report.MarketTrends{}
	}
	writeJSON(w, http.StatusOK, ProductTrendsResponse{Products: products, Days: days, Markets: trends})
}

func (e *ProductTrendsEndpoint) Command(getServerURL func() string) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "compare <product>...",
		Short: "Compare product trends across markets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := url.Values{}
			params.Set("products", strings.Join(args, ","))
			params.Set("days", strconv.Itoa(days))
			client := api.NewClient(getServerURL())
			var resp ProductTrendsResponse
			if err := client.Get(cmd.Context(), "/api/trends/products?"+params.Encode(), &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().IntVar(&days, "days", report.DefaultDays, "Look-back window in days")
	return cmd
}

// OverviewEndpoint handles GET /api/overview.
type OverviewEndpoint struct{}

func (e *OverviewEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/overview", e.handler
}

func (e *OverviewEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	Dashboard overview of all markets
//	@Tags		markets
//	@Produce	json
//	@Success	200	{object}	report.Overview
//	@Failure	500	{object}	ErrorResponse
//	@Router		/api/overview [get]
func (e *OverviewEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	reports := svcctx.ReportsFrom(r.Context())
	if reports == nil {
		writeError(w, http.StatusServiceUnavailable, "report service not initialized")
		return
	}
	ov, err := reports.Overview(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

func (e *OverviewEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Show every market's latest submission",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp report.Overview
			if err := client.Get(cmd.Context(), "/api/overview", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
