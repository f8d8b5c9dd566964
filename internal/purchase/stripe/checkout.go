package stripe

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/skipscan/skipscan/internal/config"
	"github.com/skipscan/skipscan/internal/purchase/domain"
	stripeapi "github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"go.uber.org/zap"
)

// Client opens hosted Stripe Checkout sessions for credit purchases.
type Client struct {
	log *zap.Logger
}

func NewClient(cfg config.Config, log *zap.Logger) domain.CheckoutClient {
	stripeapi.Key = strings.TrimSpace(cfg.StripeSecretKey)
	return &Client{log: log.Named("purchase.stripe")}
}

func (c *Client) CreateSession(ctx context.Context, params domain.CheckoutParams) (domain.CheckoutSession, error) {
	sessionParams := &stripeapi.CheckoutSessionParams{
		Mode: stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{
				PriceData: &stripeapi.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripeapi.String("usd"),
					UnitAmount: stripeapi.Int64(params.UnitAmountCents),
					ProductData: &stripeapi.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripeapi.String(fmt.Sprintf("%d Credits", params.Quantity)),
					},
				},
				Quantity: stripeapi.Int64(params.Quantity),
			},
		},
		SuccessURL: stripeapi.String(params.SuccessURL),
		CancelURL:  stripeapi.String(params.CancelURL),
		// Frozen purchase intent. The reconciler grants credits from this
		// metadata alone once the session settles.
		Metadata: map[string]string{
			"account_id": params.AccountID,
			"package_id": params.PackageID,
			"quantity":   strconv.FormatInt(params.Quantity, 10),
		},
	}
	sessionParams.Context = ctx

	sess, err := checkoutsession.New(sessionParams)
	if err != nil {
		c.log.Error("checkout session not created",
			zap.String("account_id", params.AccountID),
			zap.Error(err),
		)
		return domain.CheckoutSession{}, domain.ErrCheckoutFailed
	}

	c.log.Info("checkout session created",
		zap.String("session_id", sess.ID),
		zap.String("account_id", params.AccountID),
		zap.Int64("quantity", params.Quantity),
	)

	return domain.CheckoutSession{SessionID: sess.ID, URL: sess.URL}, nil
}
