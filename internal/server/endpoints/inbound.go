package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Cank256/market-mail/internal/api"
	"github.com/Cank256/market-mail/internal/inbound"
	"github.com/Cank256/market-mail/internal/ingest"
	"github.com/Cank256/market-mail/internal/market"
	"github.com/Cank256/market-mail/internal/svcctx"
)

// InboundSaved is the message returned for an accepted submission.
const InboundSaved = "Market price data received and saved successfully."

// InboundResponse is the response to an accepted webhook.
type InboundResponse struct {
	Message string          `json:"message"`
	Data    SubmissionBrief `json:"data"`
}

// SubmissionBrief identifies a saved submission.
type SubmissionBrief struct {
	ID        string    `json:"id"`
	Market    string    `json:"market"`
	Country   string    `json:"country,omitempty"`
	Date      time.Time `json:"date"`
	ItemCount int       `json:"itemCount"`
	Strategy  string    `json:"strategy"`
	Notified  bool      `json:"notified"`
}

// InboundEndpoint handles POST /api/inbound, the Postmark inbound webhook.
type InboundEndpoint struct {
	// Secret returns the current signing secret. Empty skips verification.
	Secret inbound.SecretFunc
	Logger *slog.Logger
}

func (e *InboundEndpoint) Route() (string, string, http.HandlerFunc) {
	secret := e.Secret
	if secret == nil {
		secret = func() string { return "" }
	}
	return "POST", "/api/inbound", inbound.RequireSignature(secret, e.Logger)(http.HandlerFunc(e.handler)).ServeHTTP
}

func (e *InboundEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Receive a price submission email
//	@Description	Postmark inbound webhook. The email body is parsed, saved and the sender notified.
//	@Tags			inbound
//	@Accept			json
//	@Produce		json
//	@Param			X-Postmark-Signature	header		string					false	"Hex HMAC-SHA256 of the body"
//	@Param			message					body		inbound.PostmarkMessage	true	"Inbound email"
//	@Success		200						{object}	InboundResponse
//	@Failure		400						{object}	ErrorResponse
//	@Failure		401						{object}	ErrorResponse
//	@Failure		422						{object}	ErrorResponse
//	@Failure		500						{object}	ErrorResponse
//	@Router			/api/inbound [post]
func (e *InboundEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	svc := svcctx.IngestFrom(r.Context())
	if svc == nil {
		writeError(w, http.StatusServiceUnavailable, "ingest service not initialized")
		return
	}

	msg, err := inbound.DecodePostmark(http.MaxBytesReader(w, r.Body, inbound.MaxBodyBytes))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out, err := svc.Process(r.Context(), ingest.SourceWebhook, msg.Payload())
	if err != nil {
		writeError(w, StatusFor(err), ingest.UserMessage(err))
		return
	}

	sub := out.Submission
	writeJSON(w, http.StatusOK, InboundResponse{
		Message: InboundSaved,
		Data: SubmissionBrief{
			ID:        sub.ID,
			Market:    sub.Market,
			Country:   sub.Country,
			Date:      sub.Date,
			ItemCount: sub.ItemCount,
			Strategy:  string(out.Strategy),
			Notified:  out.Notified,
		},
	})
}

func (e *InboundEndpoint) Command(getServerURL func() string) *cobra.Command {
	var secret, sender string
	cmd := &cobra.Command{
		Use:   "inbound <file>",
		Short: "Send an email to the inbound webhook",
		Long: `Send a submission to the running server as a Postmark webhook.

A .json file is sent verbatim. A .eml or plain text file is wrapped in a
webhook body first. With --secret the request is signed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := webhookBody(args[0], sender)
			if err != nil {
				return err
			}
			headers := map[string]string{}
			if secret != "" {
				headers[inbound.SignatureHeader] = inbound.Sign(secret, body)
			}

			client := api.NewClient(getServerURL())
			var resp InboundResponse
			if err := client.PostRaw(cmd.Context(), "/api/inbound", body, headers, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("POSTMARK_WEBHOOK_SECRET"), "Webhook signing secret")
	cmd.Flags().StringVar(&sender, "from", "", "Sender address for non-JSON files")
	return cmd
}

// webhookBody returns the bytes to post for path.
func webhookBody(path, sender string) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return os.ReadFile(path)
	}
	p, err := ingest.ReadFile(path, sender)
	if err != nil {
		return nil, err
	}
	if p.SenderEmail == "" {
		return nil, errors.New("sender unknown: pass --from")
	}
	return json.Marshal(inbound.PostmarkMessage{
		From:              p.SenderEmail,
		FromFull:          inbound.Address{Email: p.SenderEmail},
		OriginalRecipient: p.OriginalRecipient,
		Subject:           p.Subject,
		MessageID:         p.MessageID,
		TextBody:          p.Body,
	})
}

// ExtractResponse is a dry-run extraction.
type ExtractResponse struct {
	Record   *market.MarketData `json:"record"`
	Strategy string             `json:"strategy"`
	Country  string             `json:"country,omitempty"`
}

// ExtractEndpoint handles POST /api/extract. Nothing is stored.
type ExtractEndpoint struct{}

func (e *ExtractEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/extract", e.handler
}

func (e *ExtractEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Extract without saving
//	@Description	Runs the extraction pipeline on a payload and returns the record. Nothing is stored and nobody is notified.
//	@Tags			inbound
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		market.Payload	true	"Email payload"
//	@Success		200		{object}	ExtractResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/api/extract [post]
func (e *ExtractEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	svc := svcctx.IngestFrom(r.Context())
	if svc == nil {
		writeError(w, http.StatusServiceUnavailable, "ingest service not initialized")
		return
	}

	var p market.Payload
	if err := json.NewDecoder(io.LimitReader(r.Body, inbound.MaxBodyBytes)).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	preview, err := svc.Extract(r.Context(), p)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ExtractResponse{
		Record:   preview.Record,
		Strategy: string(preview.Strategy),
		Country:  preview.Country,
	})
}

func (e *ExtractEndpoint) Command(getServerURL func() string) *cobra.Command {
	var sender string
	cmd := &cobra.Command{
		Use:   "extract <file>",
		Short: "Run server-side extraction on a file without saving",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ingest.ReadFile(args[0], sender)
			if err != nil {
				return err
			}
			client := api.NewClient(getServerURL())
			var resp ExtractResponse
			if err := client.Post(cmd.Context(), "/api/extract", p, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&sender, "from", "", "Sender address (overrides the file's)")
	return cmd
}
