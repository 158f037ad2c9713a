// Package payment handles premium purchase and verification against Stripe.
package payment

import (
	"context"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"github.com/klarpost/klarpost/internal/domain"
	"github.com/klarpost/klarpost/internal/observability"
)

// CheckoutCreator starts a subscription checkout and returns the URL the
// client should be redirected to.
type CheckoutCreator interface {
	CreateCheckout(ctx context.Context) (string, error)
}

// Verifier confirms that a completed checkout session belongs to a paid,
// active subscription.
type Verifier interface {
	VerifySession(ctx context.Context, sessionID string) (bool, error)
}

// StripeClient implements CheckoutCreator and Verifier against the Stripe API.
type StripeClient struct {
	api     *client.API
	priceID string
	appURL  string
	logger  *observability.Logger
}

// NewStripeClient creates a Stripe-backed payment client. An empty secret key
// or price ID yields an unconfigured client whose operations fail with a
// configuration error.
func NewStripeClient(secretKey, priceID, appURL string, logger *observability.Logger) *StripeClient {
	if logger == nil {
		logger = observability.Nop()
	}
	c := &StripeClient{
		priceID: priceID,
		appURL:  strings.TrimRight(appURL, "/"),
		logger:  logger.WithComponent("payment"),
	}
	if secretKey != "" {
		c.api = &client.API{}
		c.api.Init(secretKey, nil)
	}
	return c
}

// Configured reports whether the client can talk to Stripe.
func (c *StripeClient) Configured() bool {
	return c.api != nil && c.priceID != ""
}

// CreateCheckout starts a subscription checkout session.
func (c *StripeClient) CreateCheckout(ctx context.Context) (string, error) {
	if !c.Configured() {
		return "", domain.ConfigurationMissingError("payment is not configured", nil)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(c.priceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:          stripe.String(c.appURL + "/premium/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:           stripe.String(c.appURL + "/"),
		AllowPromotionCodes: stripe.Bool(true),
	}
	params.Context = ctx

	session, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", domain.UpstreamUnavailableError("the checkout session could not be created", err)
	}
	return session.URL, nil
}

// VerifySession reports whether the session is paid and carries an active or
// trialing subscription. Both conditions must hold before premium is granted.
func (c *StripeClient) VerifySession(ctx context.Context, sessionID string) (bool, error) {
	if !c.Configured() {
		return false, domain.ConfigurationMissingError("payment is not configured", nil)
	}

	sessionParams := &stripe.CheckoutSessionParams{}
	sessionParams.Context = ctx
	session, err := c.api.CheckoutSessions.Get(sessionID, sessionParams)
	if err != nil {
		return false, domain.UpstreamUnavailableError("the checkout session could not be retrieved", err)
	}

	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return false, nil
	}
	if session.Subscription == nil || session.Subscription.ID == "" {
		return false, nil
	}

	subParams := &stripe.SubscriptionParams{}
	subParams.Context = ctx
	sub, err := c.api.Subscriptions.Get(session.Subscription.ID, subParams)
	if err != nil {
		return false, domain.UpstreamUnavailableError("the subscription could not be retrieved", err)
	}

	active := sub.Status == stripe.SubscriptionStatusActive || sub.Status == stripe.SubscriptionStatusTrialing
	if !active {
		c.logger.WithContext(ctx).Warn().
			Str("subscription_status", string(sub.Status)).
			Msg("paid session without active subscription")
	}
	return active, nil
}
