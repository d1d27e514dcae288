package payment

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/tunecraft/tunecraft-api/pkg/config"
	appErrors "github.com/tunecraft/tunecraft-api/pkg/errors"
)

// Intent is the subset of the gateway's charge-intent payload the service
// needs: the identifier and the secret handed back to the browser client.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

// Gateway creates charge intents against the external payment provider.
// Calls are never retried here; retrying a charge risks double payment.
type Gateway interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (*Intent, error)
}

// RestGateway talks to a Stripe-compatible REST API.
type RestGateway struct {
	client *resty.Client
}

// NewRestGateway constructs the gateway client with a bounded timeout.
func NewRestGateway(cfg config.GatewayConfig) *RestGateway {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.SecretKey).
		SetRetryCount(0)
	return &RestGateway{client: client}
}

// CreateIntent asks the gateway for a new charge intent. Amount is in minor
// currency units and must be positive.
func (g *RestGateway) CreateIntent(ctx context.Context, amount int64, currency string) (*Intent, error) {
	if amount <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must be a positive integer")
	}
	if currency == "" {
		currency = "usd"
	}

	var intent Intent
	resp, err := g.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"amount":   strconv.FormatInt(amount, 10),
			"currency": currency,
		}).
		SetResult(&intent).
		Post("/payment_intents")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "payment gateway unreachable")
	}
	if resp.IsError() {
		return nil, appErrors.Wrap(
			fmt.Errorf("gateway status %d: %s", resp.StatusCode(), resp.String()),
			appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "payment gateway rejected intent")
	}
	if intent.ClientSecret == "" {
		return nil, appErrors.Clone(appErrors.ErrUpstream, "gateway returned no client secret")
	}

	return &intent, nil
}
