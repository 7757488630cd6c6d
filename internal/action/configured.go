package action

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/flemzord/cronbot/internal/config"
)

// templateData is exposed to message templates.
type templateData struct {
	Job     string
	Command string
	Args    []string
	ArgText string
	FiredAt time.Time
}

// webhookEvent is the JSON body posted by webhook actions.
type webhookEvent struct {
	Job     string    `json:"job"`
	Command string    `json:"command"`
	Args    []string  `json:"args"`
	FiredAt time.Time `json:"fired_at"`
}

// configured builds the handler for a config-defined command.
func (c *Catalog) configured(name string, cfg config.ActionConfig) (Handler, error) {
	switch cfg.Kind {
	case config.ActionMessage:
		tmpl, err := template.New(name).Option("missingkey=error").Parse(cfg.Text)
		if err != nil {
			return nil, fmt.Errorf("parse text: %w", err)
		}
		return func(_ context.Context, req Request) (Result, error) {
			var b strings.Builder
			err := tmpl.Execute(&b, templateData{
				Job:     req.Job,
				Command: req.Command,
				Args:    req.Args,
				ArgText: strings.Join(req.Args, " "),
				FiredAt: req.FiredAt.In(c.loc),
			})
			if err != nil {
				return Result{}, fmt.Errorf("render text: %w", err)
			}
			return Result{Output: b.String()}, nil
		}, nil

	case config.ActionWebhook:
		url, timeout := cfg.URL, cfg.Timeout
		return func(ctx context.Context, req Request) (Result, error) {
			return Result{}, c.postWebhook(ctx, url, timeout, req)
		}, nil

	default:
		return nil, fmt.Errorf("unsupported kind %q", cfg.Kind)
	}
}

func (c *Catalog) postWebhook(ctx context.Context, url string, timeout time.Duration, req Request) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	args := req.Args
	if args == nil {
		args = []string{}
	}
	body, err := json.Marshal(webhookEvent{Job: req.Job, Command: req.Command, Args: args, FiredAt: req.FiredAt.UTC()})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}
