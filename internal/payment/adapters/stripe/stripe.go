package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	paymentdomain "github.com/skipscan/skipscan/internal/payment/domain"
	stripeapi "github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
)

// Signature timestamps older than this are rejected to limit replay.
const signatureTolerance = 5 * time.Minute

type Adapter struct {
	webhookSecret string
	now           func() time.Time
}

func NewAdapter(secretKey, webhookSecret string) (*Adapter, error) {
	webhookSecret = strings.TrimSpace(webhookSecret)
	if webhookSecret == "" {
		return nil, errors.New("stripe webhook secret is required")
	}

	// Package-level key for checkout session retrieval.
	stripeapi.Key = strings.TrimSpace(secretKey)

	return &Adapter{
		webhookSecret: webhookSecret,
		now:           func() time.Time { return time.Now().UTC() },
	}, nil
}

func (a *Adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	sigHeader := strings.TrimSpace(headers.Get("Stripe-Signature"))
	if sigHeader == "" {
		return paymentdomain.ErrInvalidSignature
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return paymentdomain.ErrInvalidSignature
	}

	issued, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return paymentdomain.ErrInvalidSignature
	}
	age := a.now().Sub(time.Unix(issued, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return paymentdomain.ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(a.webhookSecret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}

	return paymentdomain.ErrInvalidSignature
}

func (a *Adapter) Parse(ctx context.Context, payload []byte) (paymentdomain.SessionDetails, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return paymentdomain.SessionDetails{}, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return paymentdomain.SessionDetails{}, paymentdomain.ErrInvalidEvent
	}

	if strings.TrimSpace(event.Type) != "checkout.session.completed" {
		return paymentdomain.SessionDetails{}, paymentdomain.ErrEventIgnored
	}

	var session stripeSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return paymentdomain.SessionDetails{}, paymentdomain.ErrInvalidPayload
	}
	if strings.TrimSpace(session.ID) == "" {
		return paymentdomain.SessionDetails{}, paymentdomain.ErrInvalidEvent
	}

	return sessionDetails(session.ID, session.PaymentStatus == "paid", session.AmountTotal, session.Metadata)
}

func (a *Adapter) FetchSession(ctx context.Context, sessionID string) (paymentdomain.SessionDetails, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return paymentdomain.SessionDetails{}, paymentdomain.ErrInvalidSession
	}

	params := &stripeapi.CheckoutSessionParams{}
	params.Context = ctx
	session, err := checkoutsession.Get(sessionID, params)
	if err != nil {
		// Unknown session IDs come back as a 404 from the API; everything
		// else is the processor being unreachable.
		var stripeErr *stripeapi.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return paymentdomain.SessionDetails{}, paymentdomain.ErrInvalidSession
		}
		return paymentdomain.SessionDetails{}, paymentdomain.ErrProcessorUnavailable
	}

	metadata := make(map[string]any, len(session.Metadata))
	for key, value := range session.Metadata {
		metadata[key] = value
	}

	return sessionDetails(session.ID, session.PaymentStatus == stripeapi.CheckoutSessionPaymentStatusPaid, session.AmountTotal, metadata)
}

type stripeEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Data    stripeEventData `json:"data"`
}

type stripeEventData struct {
	Object json.RawMessage `json:"object"`
}

type stripeSession struct {
	ID            string         `json:"id"`
	PaymentStatus string         `json:"payment_status"`
	AmountTotal   int64          `json:"amount_total"`
	Metadata      map[string]any `json:"metadata"`
}

func sessionDetails(sessionID string, paid bool, amountCents int64, metadata map[string]any) (paymentdomain.SessionDetails, error) {
	accountID := readMetadataValue(metadata, "account_id")
	packageID := readMetadataValue(metadata, "package_id")
	quantityRaw := readMetadataValue(metadata, "quantity")
	if accountID == "" || packageID == "" || quantityRaw == "" {
		return paymentdomain.SessionDetails{}, paymentdomain.ErrInvalidMetadata
	}
	quantity, err := strconv.ParseInt(quantityRaw, 10, 64)
	if err != nil || quantity <= 0 {
		return paymentdomain.SessionDetails{}, paymentdomain.ErrInvalidMetadata
	}

	return paymentdomain.SessionDetails{
		SessionID:   sessionID,
		Paid:        paid,
		AccountID:   accountID,
		PackageID:   packageID,
		Quantity:    quantity,
		AmountCents: amountCents,
	}, nil
}

func parseSignatureHeader(header string) (string, []string, error) {
	parts := strings.Split(header, ",")
	var timestamp string
	signatures := []string{}
	for _, part := range parts {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("invalid_signature")
	}
	return timestamp, signatures, nil
}

func readMetadataValue(metadata map[string]any, key string) string {
	if metadata == nil {
		return ""
	}
	value, ok := metadata[key]
	if !ok {
		return ""
	}
	switch cast := value.(type) {
	case string:
		return strings.TrimSpace(cast)
	case float64:
		if cast == 0 {
			return ""
		}
		return strconv.FormatInt(int64(cast), 10)
	case json.Number:
		return cast.String()
	case int64:
		return strconv.FormatInt(cast, 10)
	case int:
		return strconv.Itoa(cast)
	}
	return ""
}
