package cli

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-dining-concierge/internal/http/handlers"
	"github.com/tbourn/go-dining-concierge/internal/http/middleware"
	"github.com/tbourn/go-dining-concierge/internal/services"
	"github.com/tbourn/go-dining-concierge/internal/sysutil"
)

const headerRequestID = "X-Request-ID"

func newLambdaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lambda",
		Short: "Run as an AWS Lambda function",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "frontend",
		Short: "API Gateway proxy handler for the chat front end",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := newDeps(a.cfg)
			engine, err := d.dialogEngine(cmd.Context())
			if err != nil {
				return err
			}
			h := &frontendHandler{Conversation: &services.Conversation{Engine: engine}}
			lambda.Start(h.Handle)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "dialog",
		Short: "Dialog engine code-hook handler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl, err := newDeps(a.cfg).controller(cmd.Context())
			if err != nil {
				return err
			}
			lambda.Start(ctrl.Handle)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "consumer",
		Short: "Scheduled handler processing one queued request per invocation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newDeps(a.cfg).consumer(cmd.Context())
			if err != nil {
				return err
			}
			lambda.Start(consumerHandler(c))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "ingest",
		Short: "Ingestion handler for {action, location} events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := newDeps(a.cfg)
			in, err := d.ingestor(cmd.Context(), a.cfg.RequireYelp() == nil)
			if err != nil {
				return err
			}
			lambda.Start(ingestHandler(in, a.cfg.Yelp.DefaultLocation, sharedIndex(a.cfg)))
			return nil
		},
	})
	return cmd
}

// ---- front end ----

// frontendHandler serves the browser client through an API Gateway proxy
// integration. It always returns a response; failures become 4xx/5xx bodies.
type frontendHandler struct {
	Conversation handlers.Conversation
}

// Handle answers one proxy request. The client's X-Request-ID wins over the
// gateway's request id and is echoed back.
func (h *frontendHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	sid := headerValue(req.Headers, middleware.HeaderSessionID)
	if !middleware.ValidSessionID(sid) {
		sid = uuid.NewString()
	}
	rid := sysutil.FirstNonEmpty(headerValue(req.Headers, headerRequestID), req.RequestContext.RequestID)
	lg := log.With().Str("session_id", sid).Str("request_id", rid).Logger()
	ctx = lg.WithContext(ctx)

	resp := h.turn(ctx, req, sid)
	if rid != "" {
		resp.Headers[headerRequestID] = rid
	}
	return resp, nil
}

func (h *frontendHandler) turn(ctx context.Context, req events.APIGatewayProxyRequest, sid string) events.APIGatewayProxyResponse {
	if req.HTTPMethod == http.MethodOptions {
		return proxyResponse(http.StatusOK, sid, nil)
	}

	body := req.Body
	if req.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return messageResponse(http.StatusBadRequest, sid, handlers.MsgMissingBody)
		}
		body = string(b)
	}
	if strings.TrimSpace(body) == "" {
		return messageResponse(http.StatusBadRequest, sid, handlers.MsgMissingBody)
	}
	var in handlers.MessageBody
	if err := json.Unmarshal([]byte(body), &in); err != nil {
		return messageResponse(http.StatusBadRequest, sid, handlers.MsgMissingBody)
	}

	text, err := h.Conversation.Converse(ctx, sid, in.Message)
	switch {
	case errors.Is(err, services.ErrEmptyMessage):
		return messageResponse(http.StatusBadRequest, sid, handlers.MsgMissingBody)
	case err != nil:
		zerolog.Ctx(ctx).Error().Err(err).Msg("chatbot turn failed")
		return messageResponse(http.StatusInternalServerError, sid, handlers.MsgProcessingError)
	}
	return messageResponse(http.StatusOK, sid, text)
}

func messageResponse(status int, sid, msg string) events.APIGatewayProxyResponse {
	b, _ := json.Marshal(handlers.MessageBody{Message: msg})
	return proxyResponse(status, sid, b)
}

func proxyResponse(status int, sid string, body []byte) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":                  "application/json",
			"Access-Control-Allow-Origin":   "*",
			"Access-Control-Allow-Methods":  "OPTIONS, POST, GET",
			"Access-Control-Allow-Headers":  "Content-Type, " + middleware.HeaderSessionID,
			"Access-Control-Expose-Headers": middleware.HeaderSessionID + ", " + headerRequestID,
			middleware.HeaderSessionID:      sid,
		},
		Body: string(body),
	}
}

// headerValue looks a header up case-insensitively; proxy integrations
// pass names as the client sent them.
func headerValue(h map[string]string, name string) string {
	if v, ok := h[name]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// ---- consumer ----

// consumerResult is returned to the scheduler for each invocation.
type consumerResult struct {
	Outcome services.Outcome `json:"outcome"`
}

func consumerHandler(c processor) func(context.Context, events.CloudWatchEvent) (consumerResult, error) {
	return func(ctx context.Context, _ events.CloudWatchEvent) (consumerResult, error) {
		out, err := c.ProcessOne(ctx)
		return consumerResult{Outcome: out}, err
	}
}

// ---- ingestion ----

// ingestEvent selects an ingestion job. Action is one of index (default),
// source or create-index.
type ingestEvent struct {
	Action   string `json:"action"`
	Location string `json:"location"`
}

type ingestJobs interface {
	handlers.Ingestion
	EnsureIndex(ctx context.Context) (bool, error)
}

// ingestHandler runs one ingestion job per event. Index rebuilds are
// refused unless the index is shared.
func ingestHandler(in ingestJobs, defaultLocation string, shared bool) func(context.Context, ingestEvent) (any, error) {
	return func(ctx context.Context, ev ingestEvent) (any, error) {
		switch strings.ToLower(strings.TrimSpace(ev.Action)) {
		case "", "index":
			if !shared {
				return nil, errLocalIndex
			}
			return in.RebuildIndex(ctx)
		case "source":
			loc := strings.TrimSpace(ev.Location)
			if loc == "" {
				loc = defaultLocation
			}
			return in.IngestSource(ctx, loc)
		case "create-index":
			created, err := in.EnsureIndex(ctx)
			return map[string]bool{"created": created}, err
		default:
			return nil, fmt.Errorf("unknown ingest action %q", ev.Action)
		}
	}
}
