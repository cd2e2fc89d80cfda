// Package billing describes how a payment was made using Stripe.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tourbook/internal/models"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
)

// IntentGetter fetches a payment intent; paymentintent.Client satisfies it.
type IntentGetter interface {
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeResolver turns a payment intent id into "Visa •••• 4242".
type StripeResolver struct {
	intents IntentGetter
}

func NewStripeResolver(secretKey string) *StripeResolver {
	return &StripeResolver{intents: &paymentintent.Client{
		B:   stripe.GetBackend(stripe.APIBackend),
		Key: secretKey,
	}}
}

func NewResolverWithGetter(g IntentGetter) *StripeResolver {
	return &StripeResolver{intents: g}
}

func (r *StripeResolver) Describe(ctx context.Context, paymentIntentID string) (string, error) {
	if paymentIntentID == "" {
		return models.PaymentMethodCard, nil
	}
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("payment_method")

	pi, err := r.intents.Get(paymentIntentID, params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.Code == stripe.ErrorCodeResourceMissing {
			return models.PaymentMethodCard, nil
		}
		return "", fmt.Errorf("get payment intent %s: %w", paymentIntentID, err)
	}
	return describeMethod(pi.PaymentMethod), nil
}

func describeMethod(pm *stripe.PaymentMethod) string {
	if pm == nil || pm.Card == nil {
		return models.PaymentMethodCard
	}
	brand := brandName(string(pm.Card.Brand))
	if pm.Card.Last4 == "" {
		return brand
	}
	return brand + " •••• " + pm.Card.Last4
}

var brandNames = map[string]string{
	"amex":       "American Express",
	"diners":     "Diners Club",
	"discover":   "Discover",
	"jcb":        "JCB",
	"mastercard": "Mastercard",
	"unionpay":   "UnionPay",
	"visa":       "Visa",
}

func brandName(brand string) string {
	if name, ok := brandNames[strings.ToLower(brand)]; ok {
		return name
	}
	return models.PaymentMethodCard
}
