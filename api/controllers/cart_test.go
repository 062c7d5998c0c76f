package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmstore-backend/api/middleware"
	"github.com/angelmondragon/farmstore-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/farmstore-backend/pkg/errors"
	"github.com/angelmondragon/farmstore-backend/pkg/sessionstore"
	"github.com/angelmondragon/farmstore-backend/pkg/types"
)

type stubCartEngine struct {
	calls     int
	requested decimal.Decimal
	result    cart.Result
	err       error
}

func (s *stubCartEngine) View(ctx context.Context, sess *sessionstore.Session, customer cart.Customer) (*cart.Quote, error) {
	return &cart.Quote{}, s.err
}

func (s *stubCartEngine) Add(ctx context.Context, sess *sessionstore.Session, productID uuid.UUID, requested decimal.Decimal) (cart.Result, error) {
	s.calls++
	s.requested = requested
	return s.result, s.err
}

func (s *stubCartEngine) SetQuantity(ctx context.Context, sess *sessionstore.Session, productID uuid.UUID, requested decimal.Decimal) (cart.Result, error) {
	s.calls++
	s.requested = requested
	return s.result, s.err
}

func (s *stubCartEngine) Remove(ctx context.Context, sess *sessionstore.Session, productID uuid.UUID) (cart.Result, error) {
	s.calls++
	return s.result, s.err
}

// serveCart routes through chi so {productId} resolves like production.
func serveCart(t *testing.T, pattern string, handler http.HandlerFunc, target string, form url.Values, sess *sessionstore.Session) *httptest.ResponseRecorder {
	t.Helper()
	router := chi.NewRouter()
	router.Post(pattern, handler)

	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sess != nil {
		req = req.WithContext(middleware.WithSession(req.Context(), sess))
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func decodeAPIError(t *testing.T, resp *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var envelope types.ErrorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error
}

func TestCartAddDefaultsToOne(t *testing.T) {
	productID := uuid.New()
	engine := &stubCartEngine{result: cart.Result{OK: true, ProductID: productID, Qty: decimal.NewFromInt(1)}}

	resp := serveCart(t, "/cart/{productId}/add", CartAdd(engine, nil), "/cart/"+productID.String()+"/add", url.Values{}, sessionstore.New(""))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if !engine.requested.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected default qty 1, got %s", engine.requested)
	}
	var envelope struct {
		Data cart.Result `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ProductID != productID || !envelope.Data.OK {
		t.Fatalf("unexpected result %+v", envelope.Data)
	}
}

func TestCartAddRejectsBadQuantities(t *testing.T) {
	productID := uuid.New()
	for _, raw := range []string{"lots", "1e9999", "1e-9999"} {
		engine := &stubCartEngine{}
		resp := serveCart(t, "/cart/{productId}/add", CartAdd(engine, nil), "/cart/"+productID.String()+"/add", url.Values{"qty": {raw}}, sessionstore.New(""))

		if resp.Code != http.StatusBadRequest {
			t.Fatalf("qty %q: expected 400 got %d", raw, resp.Code)
		}
		if apiErr := decodeAPIError(t, resp); apiErr.Code != string(pkgerrors.CodeValidation) {
			t.Fatalf("qty %q: unexpected code %s", raw, apiErr.Code)
		}
		if engine.calls != 0 {
			t.Fatalf("qty %q: engine must not be called", raw)
		}
	}
}

func TestCartAddBadProductID(t *testing.T) {
	engine := &stubCartEngine{}
	resp := serveCart(t, "/cart/{productId}/add", CartAdd(engine, nil), "/cart/not-a-uuid/add", url.Values{}, sessionstore.New(""))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if engine.calls != 0 {
		t.Fatal("engine must not be called")
	}
}

func TestCartAddMapsEngineErrors(t *testing.T) {
	productID := uuid.New()
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown product", pkgerrors.New(pkgerrors.CodeNotFound, "product not found"), http.StatusNotFound},
		{"sold out", pkgerrors.New(pkgerrors.CodeInsufficientStock, "sold out"), http.StatusConflict},
		{"untyped", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		engine := &stubCartEngine{err: tc.err}
		resp := serveCart(t, "/cart/{productId}/add", CartAdd(engine, nil), "/cart/"+productID.String()+"/add", url.Values{"qty": {"2"}}, sessionstore.New(""))
		if resp.Code != tc.status {
			t.Fatalf("%s: expected %d got %d", tc.name, tc.status, resp.Code)
		}
	}
}

func TestCartAddWithoutSession(t *testing.T) {
	engine := &stubCartEngine{}
	resp := serveCart(t, "/cart/{productId}/add", CartAdd(engine, nil), "/cart/"+uuid.NewString()+"/add", url.Values{}, nil)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}

func TestCartSetQuantityRequiresQty(t *testing.T) {
	engine := &stubCartEngine{}
	resp := serveCart(t, "/cart/{productId}/qty", CartSetQuantity(engine, nil), "/cart/"+uuid.NewString()+"/qty", url.Values{"qty": {"  "}}, sessionstore.New(""))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	apiErr := decodeAPIError(t, resp)
	if apiErr.Message != "qty is required" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
	if engine.calls != 0 {
		t.Fatal("engine must not be called")
	}
}

func TestCartSetQuantity(t *testing.T) {
	productID := uuid.New()
	cases := []struct {
		name   string
		qty    string
		status int
		calls  int
	}{
		{"fractional", "1.25", http.StatusOK, 1},
		{"zero removes", "0", http.StatusOK, 1},
		{"garbage", "two", http.StatusBadRequest, 0},
		{"huge exponent", "1e200000000", http.StatusBadRequest, 0},
		{"above max", "5000000", http.StatusBadRequest, 0},
	}
	for _, tc := range cases {
		engine := &stubCartEngine{result: cart.Result{OK: true, ProductID: productID}}
		resp := serveCart(t, "/cart/{productId}/qty", CartSetQuantity(engine, nil), "/cart/"+productID.String()+"/qty", url.Values{"qty": {tc.qty}}, sessionstore.New(""))

		if resp.Code != tc.status {
			t.Fatalf("%s: expected %d got %d", tc.name, tc.status, resp.Code)
		}
		if engine.calls != tc.calls {
			t.Fatalf("%s: expected %d engine calls got %d", tc.name, tc.calls, engine.calls)
		}
		if tc.calls == 1 && !engine.requested.Equal(decimal.RequireFromString(tc.qty)) {
			t.Fatalf("%s: engine got %s", tc.name, engine.requested)
		}
	}
}
