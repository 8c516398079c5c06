package endpoints

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Cank256/market-mail/internal/api"
	"github.com/Cank256/market-mail/internal/svcctx"
)

// MailboxPollResponse summarizes a manual poll cycle.
type MailboxPollResponse struct {
	Fetched   int    `json:"fetched"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
	Unparsed  int    `json:"unparsed"`
	Error     string `json:"error,omitempty"`
}

// MailboxStatusEndpoint handles GET /api/mailbox.
type MailboxStatusEndpoint struct{}

func (e *MailboxStatusEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/mailbox", e.handler
}

func (e *MailboxStatusEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary	IMAP poller status
//	@Tags		mailbox
//	@Produce	json
//	@Success	200	{object}	MailboxStatus
//	@Router		/api/mailbox [get]
func (e *MailboxStatusEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mailboxStatus(r))
}

func mailboxStatus(r *http.Request) MailboxStatus {
	var st MailboxStatus
	p := svcctx.PollerFrom(r.Context())
	if p == nil {
		return st
	}
	st.Enabled = true
	last, err := p.Status()
	if !last.IsZero() {
		st.LastPoll = &last
	}
	if err != nil {
		st.LastError = err.Error()
	}
	return st
}

func (e *MailboxStatusEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show IMAP poller status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp MailboxStatus
			if err := client.Get(cmd.Context(), "/api/mailbox", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// PollMailboxEndpoint handles POST /api/mailbox/poll.
type PollMailboxEndpoint struct {
	// Timeout bounds a manual cycle. Zero means one minute.
	Timeout time.Duration
}

func (e *PollMailboxEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/mailbox/poll", e.handler
}

func (e *PollMailboxEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Poll the mailbox now
//	@Description	Runs one poll cycle outside the schedule. Waits for a running cycle to finish first.
//	@Tags			mailbox
//	@Produce		json
//	@Success		200	{object}	MailboxPollResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		502	{object}	MailboxPollResponse
//	@Router			/api/mailbox/poll [post]
func (e *PollMailboxEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	p := svcctx.PollerFrom(r.Context())
	if p == nil {
		writeError(w, http.StatusConflict, "mailbox polling is not enabled")
		return
	}
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	res, err := p.Poll(ctx)
	resp := MailboxPollResponse{
		Fetched:   res.Fetched,
		Processed: res.Processed,
		Failed:    res.Failed,
		Unparsed:  res.Unparsed,
	}
	if err != nil {
		svcctx.LoggerFrom(r.Context()).Warn("manual mailbox poll failed", "error", err)
		resp.Error = err.Error()
		writeJSON(w, http.StatusBadGateway, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *PollMailboxEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Poll the mailbox now",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp MailboxPollResponse
			if err := client.Post(cmd.Context(), "/api/mailbox/poll", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}
