package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	accountdomain "github.com/skipscan/skipscan/internal/account/domain"
	"github.com/skipscan/skipscan/internal/accountctx"
	"github.com/skipscan/skipscan/internal/auth"
	"github.com/skipscan/skipscan/internal/config"
	creditgatedomain "github.com/skipscan/skipscan/internal/creditgate/domain"
	enrichmentdomain "github.com/skipscan/skipscan/internal/enrichment/domain"
	paymentdomain "github.com/skipscan/skipscan/internal/payment/domain"
	purchasedomain "github.com/skipscan/skipscan/internal/purchase/domain"
	queryresultdomain "github.com/skipscan/skipscan/internal/queryresult/domain"
)

type fakeAccountService struct {
	account accountdomain.Account
	created bool
	err     error
}

func (f *fakeAccountService) Create(ctx context.Context, req accountdomain.CreateAccountRequest) (accountdomain.Account, error) {
	f.created = true
	_ = ctx
	if f.err != nil {
		return accountdomain.Account{}, f.err
	}
	account := f.account
	account.Email = req.Email
	return account, nil
}

func (f *fakeAccountService) Get(ctx context.Context) (accountdomain.Account, error) {
	if _, ok := accountctx.AccountIDFromContext(ctx); !ok {
		return accountdomain.Account{}, accountdomain.ErrInvalidAccount
	}
	return f.account, f.err
}

func (f *fakeAccountService) Balance(ctx context.Context) (int64, error) {
	_ = ctx
	return f.account.Credits, f.err
}

type fakeEnrichmentService struct {
	result  enrichmentdomain.Result
	err     error
	lastCtx context.Context
	kind    string
	label   string
}

func (f *fakeEnrichmentService) Invoke(ctx context.Context, kind, label string, req enrichmentdomain.EnrichmentRequest) (enrichmentdomain.Result, error) {
	f.lastCtx = ctx
	f.kind = kind
	f.label = label
	_ = req
	return f.result, f.err
}

func (f *fakeEnrichmentService) ProcessBatch(ctx context.Context, label string, rows []enrichmentdomain.BatchRow, mappings enrichmentdomain.ColumnMappings) (enrichmentdomain.BatchResult, error) {
	f.lastCtx = ctx
	f.label = label
	_ = rows
	_ = mappings
	if f.err != nil {
		return enrichmentdomain.BatchResult{}, f.err
	}
	return enrichmentdomain.BatchResult{Processed: len(rows)}, nil
}

type fakeResultService struct {
	summaries []queryresultdomain.Summary
	result    queryresultdomain.QueryResult
	err       error
}

func (f *fakeResultService) Record(ctx context.Context, req queryresultdomain.RecordRequest) (queryresultdomain.QueryResult, error) {
	_ = ctx
	_ = req
	return f.result, f.err
}

func (f *fakeResultService) List(ctx context.Context, req queryresultdomain.ListRequest) ([]queryresultdomain.Summary, error) {
	_ = ctx
	_ = req
	return f.summaries, f.err
}

func (f *fakeResultService) Get(ctx context.Context, id string) (queryresultdomain.QueryResult, error) {
	_ = ctx
	_ = id
	return f.result, f.err
}

type fakePaymentService struct {
	webhookErr error
	verify     paymentdomain.VerifyResult
	verifyErr  error
	handled    int
}

func (f *fakePaymentService) HandleWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	f.handled++
	_ = ctx
	_ = payload
	_ = headers
	return f.webhookErr
}

func (f *fakePaymentService) VerifySession(ctx context.Context, sessionID string) (paymentdomain.VerifyResult, error) {
	_ = ctx
	_ = sessionID
	return f.verify, f.verifyErr
}

func (f *fakePaymentService) ApplyGrant(ctx context.Context, req paymentdomain.GrantRequest) (bool, error) {
	_ = ctx
	_ = req
	return false, nil
}

type fakePurchaseService struct {
	session purchasedomain.CheckoutSession
	outcome purchasedomain.GrantOutcome
	err     error
}

func (f *fakePurchaseService) CreateSession(ctx context.Context, req purchasedomain.CreateSessionRequest) (purchasedomain.CheckoutSession, error) {
	_ = ctx
	_ = req
	return f.session, f.err
}

func (f *fakePurchaseService) GrantDirect(ctx context.Context, req purchasedomain.CreateSessionRequest) (purchasedomain.GrantOutcome, error) {
	_ = ctx
	_ = req
	return f.outcome, f.err
}

func newTestTokens(t *testing.T) *auth.Manager {
	t.Helper()
	tokens, err := auth.NewManager(config.Config{AuthJWTSecret: "test-secret"})
	if err != nil {
		t.Fatalf("new token manager: %v", err)
	}
	return tokens
}

func newTestRouter(srv *Server) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ErrorHandlingMiddleware())
	srv.engine = r
	RegisterRoutes(srv)
	return r
}

func doJSON(router *gin.Engine, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestSignupReturnsAccountAndToken(t *testing.T) {
	tokens := newTestTokens(t)
	accounts := &fakeAccountService{account: accountdomain.Account{ID: snowflake.ID(200)}}
	srv := &Server{tokens: tokens, accountSvc: accounts}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/v1/auth/signup", `{"email":"alice@example.com"}`, "")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if !accounts.created {
		t.Fatal("expected account service to be called")
	}

	var body struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Data.Token == "" {
		t.Fatal("expected a token in the signup response")
	}
	if _, err := tokens.Verify(body.Data.Token); err != nil {
		t.Fatalf("signup token does not verify: %v", err)
	}
}

func TestSignupDuplicateEmailConflicts(t *testing.T) {
	srv := &Server{
		tokens:     newTestTokens(t),
		accountSvc: &fakeAccountService{err: accountdomain.ErrEmailTaken},
	}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/v1/auth/signup", `{"email":"alice@example.com"}`, "")

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
}

func TestAuthRequiredRejectsMissingToken(t *testing.T) {
	srv := &Server{tokens: newTestTokens(t), accountSvc: &fakeAccountService{}}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodGet, "/v1/account", "", "")

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestAuthRequiredRejectsGarbageToken(t *testing.T) {
	srv := &Server{tokens: newTestTokens(t), accountSvc: &fakeAccountService{}}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodGet, "/v1/account", "", "not-a-jwt")

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestGetAccountWithValidToken(t *testing.T) {
	tokens := newTestTokens(t)
	srv := &Server{
		tokens:     tokens,
		accountSvc: &fakeAccountService{account: accountdomain.Account{ID: snowflake.ID(7), Credits: 42}},
	}
	router := newTestRouter(srv)

	token, err := tokens.Issue(snowflake.ID(7))
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	resp := doJSON(router, http.MethodGet, "/v1/account", "", token)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var body struct {
		Data accountdomain.Account `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Data.Credits != 42 {
		t.Fatalf("expected 42 credits, got %d", body.Data.Credits)
	}
}

func TestEnrichPassesKindThrough(t *testing.T) {
	tokens := newTestTokens(t)
	enrich := &fakeEnrichmentService{result: enrichmentdomain.Result{CreditsSpent: 1}}
	srv := &Server{tokens: tokens, enrichmentSvc: enrich}
	router := newTestRouter(srv)

	token, _ := tokens.Issue(snowflake.ID(7))
	resp := doJSON(router, http.MethodPost, "/v1/enrich/contact-append", `{"phone":"5551234567","label":"my search"}`, token)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if enrich.kind != enrichmentdomain.KindContactAppend {
		t.Fatalf("expected kind %q, got %q", enrichmentdomain.KindContactAppend, enrich.kind)
	}
	if enrich.label != "my search" {
		t.Fatalf("expected label %q, got %q", "my search", enrich.label)
	}
	if _, ok := accountctx.AccountIDFromContext(enrich.lastCtx); !ok {
		t.Fatal("expected account ID on the service context")
	}
}

func TestEnrichInsufficientCreditsReturns402(t *testing.T) {
	tokens := newTestTokens(t)
	srv := &Server{
		tokens:        tokens,
		enrichmentSvc: &fakeEnrichmentService{err: creditgatedomain.ErrInsufficientCredits},
	}
	router := newTestRouter(srv)

	token, _ := tokens.Issue(snowflake.ID(7))
	resp := doJSON(router, http.MethodPost, "/v1/enrich/contact-append", `{"phone":"5551234567"}`, token)

	if resp.Code != http.StatusPaymentRequired {
		t.Fatalf("expected status 402, got %d", resp.Code)
	}
}

func TestEnrichUnknownKindReturns400(t *testing.T) {
	tokens := newTestTokens(t)
	srv := &Server{
		tokens:        tokens,
		enrichmentSvc: &fakeEnrichmentService{err: enrichmentdomain.ErrInvalidKind},
	}
	router := newTestRouter(srv)

	token, _ := tokens.Issue(snowflake.ID(7))
	resp := doJSON(router, http.MethodPost, "/v1/enrich/mystery-kind", `{"phone":"5551234567"}`, token)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestEnrichProviderDownReturns502(t *testing.T) {
	tokens := newTestTokens(t)
	srv := &Server{
		tokens:        tokens,
		enrichmentSvc: &fakeEnrichmentService{err: enrichmentdomain.ErrProviderUnavailable},
	}
	router := newTestRouter(srv)

	token, _ := tokens.Issue(snowflake.ID(7))
	resp := doJSON(router, http.MethodPost, "/v1/enrich/contact-append", `{"phone":"5551234567"}`, token)

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", resp.Code)
	}
}

func TestEnrichBatchProcessesRows(t *testing.T) {
	tokens := newTestTokens(t)
	enrich := &fakeEnrichmentService{}
	srv := &Server{tokens: tokens, enrichmentSvc: enrich}
	router := newTestRouter(srv)

	token, _ := tokens.Issue(snowflake.ID(7))
	body := `{"label":"cold leads","rows":[{"Cell":"5551234567"}],"mappings":{"phone":"Cell"}}`
	resp := doJSON(router, http.MethodPost, "/v1/enrich/batch", body, token)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if enrich.label != "cold leads" {
		t.Fatalf("expected label %q, got %q", "cold leads", enrich.label)
	}
}

func TestGetResultNotFoundReturns404(t *testing.T) {
	tokens := newTestTokens(t)
	srv := &Server{
		tokens:    tokens,
		resultSvc: &fakeResultService{err: queryresultdomain.ErrNotFound},
	}
	router := newTestRouter(srv)

	token, _ := tokens.Issue(snowflake.ID(7))
	resp := doJSON(router, http.MethodGet, "/v1/results/12345", "", token)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestVerifyCheckoutRequiresSessionID(t *testing.T) {
	tokens := newTestTokens(t)
	srv := &Server{tokens: tokens, paymentSvc: &fakePaymentService{}}
	router := newTestRouter(srv)

	token, _ := tokens.Issue(snowflake.ID(7))
	resp := doJSON(router, http.MethodPost, "/v1/checkout/verify", `{}`, token)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestVerifyCheckoutForeignSessionReturns403(t *testing.T) {
	tokens := newTestTokens(t)
	srv := &Server{
		tokens:     tokens,
		paymentSvc: &fakePaymentService{verifyErr: paymentdomain.ErrSessionMismatch},
	}
	router := newTestRouter(srv)

	token, _ := tokens.Issue(snowflake.ID(7))
	resp := doJSON(router, http.MethodPost, "/v1/checkout/verify", `{"session_id":"cs_test_1"}`, token)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}
}

func TestVerifyCheckoutProcessorDownReturns502(t *testing.T) {
	tokens := newTestTokens(t)
	srv := &Server{
		tokens:     tokens,
		paymentSvc: &fakePaymentService{verifyErr: paymentdomain.ErrProcessorUnavailable},
	}
	router := newTestRouter(srv)

	token, _ := tokens.Issue(snowflake.ID(7))
	resp := doJSON(router, http.MethodPost, "/v1/checkout/verify", `{"session_id":"cs_test_1"}`, token)

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestCheckoutEligibilityDeniedReturns403(t *testing.T) {
	tokens := newTestTokens(t)
	srv := &Server{
		tokens:      tokens,
		purchaseSvc: &fakePurchaseService{err: purchasedomain.ErrEligibilityDenied},
	}
	router := newTestRouter(srv)

	token, _ := tokens.Issue(snowflake.ID(7))
	resp := doJSON(router, http.MethodPost, "/v1/checkout", `{"package_id":"1","quantity":10}`, token)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}
}

func TestSandboxGrantDisabledReturns404(t *testing.T) {
	tokens := newTestTokens(t)
	srv := &Server{
		tokens:      tokens,
		purchaseSvc: &fakePurchaseService{err: purchasedomain.ErrSandboxDisabled},
	}
	router := newTestRouter(srv)

	token, _ := tokens.Issue(snowflake.ID(7))
	resp := doJSON(router, http.MethodPost, "/v1/checkout/sandbox", `{"package_id":"1","quantity":10}`, token)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestWebhookAcknowledgesIgnoredEvents(t *testing.T) {
	payments := &fakePaymentService{webhookErr: paymentdomain.ErrEventIgnored}
	srv := &Server{tokens: newTestTokens(t), paymentSvc: payments}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/webhooks/stripe", `{"type":"invoice.created"}`, "")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if payments.handled != 1 {
		t.Fatalf("expected one webhook call, got %d", payments.handled)
	}
}

func TestWebhookBadSignatureReturns400(t *testing.T) {
	srv := &Server{
		tokens:     newTestTokens(t),
		paymentSvc: &fakePaymentService{webhookErr: paymentdomain.ErrInvalidSignature},
	}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/webhooks/stripe", `{}`, "")

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestWebhookGrantFailureReturns500(t *testing.T) {
	srv := &Server{
		tokens:     newTestTokens(t),
		paymentSvc: &fakePaymentService{webhookErr: paymentdomain.ErrGrantFailed},
	}
	router := newTestRouter(srv)

	resp := doJSON(router, http.MethodPost, "/webhooks/stripe", `{}`, "")

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", resp.Code)
	}
}
