package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/angelmondragon/farmstore-backend/api/middleware"
	"github.com/angelmondragon/farmstore-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/farmstore-backend/internal/checkout"
	"github.com/angelmondragon/farmstore-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/farmstore-backend/pkg/errors"
	"github.com/angelmondragon/farmstore-backend/pkg/sessionstore"
)

type stubCheckoutService struct {
	input    checkoutsvc.Input
	customer cart.Customer
	placed   int
	detail   *orders.OrderDetail
	err      error
}

func (s *stubCheckoutService) Preview(ctx context.Context, sess *sessionstore.Session, customer cart.Customer) (*checkoutsvc.Preview, error) {
	s.customer = customer
	return &checkoutsvc.Preview{Email: "ann@example.com"}, s.err
}

func (s *stubCheckoutService) PlaceOrder(ctx context.Context, sess *sessionstore.Session, customer cart.Customer, input checkoutsvc.Input) (*orders.OrderDetail, error) {
	s.placed++
	s.input = input
	s.customer = customer
	return s.detail, s.err
}

func (s *stubCheckoutService) Drain(ctx context.Context) error { return nil }

type stubCustomers struct {
	customer cart.Customer
}

func (s stubCustomers) Customer(ctx context.Context, userID uuid.UUID) (cart.Customer, error) {
	c := s.customer
	c.UserID = &userID
	return c, nil
}

func checkoutRequest(body *bytes.Buffer, contentType string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req.WithContext(middleware.WithSession(req.Context(), sessionstore.New("")))
}

func TestCheckoutDecodesStorefrontForm(t *testing.T) {
	svc := &stubCheckoutService{detail: &orders.OrderDetail{ID: uuid.New(), Number: "AB12"}}
	form := url.Values{"email": {"ann@example.com"}, "phone": {"555-0100"}, "payment_method": {"venmo"}}

	resp := httptest.NewRecorder()
	Checkout(svc, nil, nil).ServeHTTP(resp, checkoutRequest(bytes.NewBufferString(form.Encode()), "application/x-www-form-urlencoded; charset=utf-8"))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	want := checkoutsvc.Input{Email: "ann@example.com", Phone: "555-0100", PaymentMethod: "venmo"}
	if svc.input != want {
		t.Fatalf("unexpected input %+v", svc.input)
	}
	var envelope struct {
		Data orders.OrderDetail `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Number != "AB12" {
		t.Fatalf("unexpected order %+v", envelope.Data)
	}
}

func TestCheckoutDecodesMultipartForm(t *testing.T) {
	svc := &stubCheckoutService{detail: &orders.OrderDetail{ID: uuid.New()}}
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for field, value := range map[string]string{"email": "bo@example.com", "payment_method": "cash"} {
		if err := writer.WriteField(field, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	resp := httptest.NewRecorder()
	Checkout(svc, nil, nil).ServeHTTP(resp, checkoutRequest(&body, writer.FormDataContentType()))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.input.Email != "bo@example.com" || svc.input.PaymentMethod != "cash" {
		t.Fatalf("unexpected input %+v", svc.input)
	}
}

func TestCheckoutDecodesJSON(t *testing.T) {
	svc := &stubCheckoutService{detail: &orders.OrderDetail{ID: uuid.New()}}
	body := bytes.NewBufferString(`{"email":"cy@example.com","payment_method":"zelle"}`)

	resp := httptest.NewRecorder()
	Checkout(svc, nil, nil).ServeHTTP(resp, checkoutRequest(body, "application/json"))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.input.Email != "cy@example.com" || svc.input.PaymentMethod != "zelle" {
		t.Fatalf("unexpected input %+v", svc.input)
	}
}

func TestCheckoutRejectsMalformedJSON(t *testing.T) {
	for name, raw := range map[string]string{
		"unknown field": `{"email":"a@b.c","payment_method":"cash","tip":5}`,
		"truncated":     `{"email":`,
		"wrong type":    `{"email":42}`,
	} {
		svc := &stubCheckoutService{}
		resp := httptest.NewRecorder()
		Checkout(svc, nil, nil).ServeHTTP(resp, checkoutRequest(bytes.NewBufferString(raw), "application/json"))

		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", name, resp.Code)
		}
		if svc.placed != 0 {
			t.Fatalf("%s: order must not be placed", name)
		}
	}
}

func TestCheckoutMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   pkgerrors.Code
	}{
		{"empty cart", pkgerrors.New(pkgerrors.CodeValidation, "cart is empty"), http.StatusBadRequest, pkgerrors.CodeValidation},
		{"sold out", pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock"), http.StatusConflict, pkgerrors.CodeInsufficientStock},
	}
	for _, tc := range cases {
		svc := &stubCheckoutService{err: tc.err}
		form := url.Values{"email": {"ann@example.com"}, "payment_method": {"cash"}}
		resp := httptest.NewRecorder()
		Checkout(svc, nil, nil).ServeHTTP(resp, checkoutRequest(bytes.NewBufferString(form.Encode()), "application/x-www-form-urlencoded"))

		if resp.Code != tc.status {
			t.Fatalf("%s: expected %d got %d", tc.name, tc.status, resp.Code)
		}
		if apiErr := decodeAPIError(t, resp); apiErr.Code != string(tc.code) {
			t.Fatalf("%s: unexpected code %s", tc.name, apiErr.Code)
		}
	}
}

func TestCheckoutResolvesSignedInCustomer(t *testing.T) {
	userID := uuid.New()
	svc := &stubCheckoutService{detail: &orders.OrderDetail{ID: uuid.New()}}
	customers := stubCustomers{customer: cart.Customer{Email: "member@example.com"}}

	req := checkoutRequest(bytes.NewBufferString(`{"payment_method":"card"}`), "application/json")
	req = req.WithContext(middleware.WithUserID(req.Context(), userID, "access-1"))
	resp := httptest.NewRecorder()
	Checkout(svc, customers, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.customer.UserID == nil || *svc.customer.UserID != userID {
		t.Fatalf("expected signed-in customer, got %+v", svc.customer)
	}
}

func TestCheckoutPreviewWithoutSession(t *testing.T) {
	svc := &stubCheckoutService{}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/checkout", strings.NewReader(""))
	resp := httptest.NewRecorder()
	CheckoutPreview(svc, nil, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
