package cart

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/farmstore-backend/pkg/db/models"
	"github.com/angelmondragon/farmstore-backend/pkg/enums"
	"github.com/angelmondragon/farmstore-backend/pkg/sessionstore"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func product(unit enums.ProductUnit, price, stock string) models.Product {
	return models.Product{
		ID:       uuid.New(),
		Name:     "Tomatoes",
		Unit:     unit,
		Price:    dec(price),
		StockQty: dec(stock),
	}
}

func TestNormalizeEntry(t *testing.T) {
	cases := []struct {
		name  string
		entry any
		want  string
	}{
		{"canonical", map[string]any{"qty": "2.5"}, "2.5"},
		{"canonical number", map[string]any{"qty": json.Number("4")}, "4"},
		{"missing qty", map[string]any{"count": "3"}, "0"},
		{"json number", json.Number("3"), "3"},
		{"string", " 1.25 ", "1.25"},
		{"float", 1.5, "1.5"},
		{"int", 2, "2"},
		{"garbage", "abc", "0"},
		{"empty", "", "0"},
		{"nil", nil, "0"},
		{"negative", json.Number("-2"), "0"},
		{"bool", true, "0"},
		{"huge exponent", "1e200000000", "0"},
		{"tiny exponent", json.Number("1e-9999"), "0"},
		{"above max", map[string]any{"qty": "5000000"}, "0"},
	}
	for _, tc := range cases {
		if got := NormalizeEntry(tc.entry); !got.Equal(dec(tc.want)) {
			t.Fatalf("%s: NormalizeEntry = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestFromSessionRewritesLegacyShapes(t *testing.T) {
	store := sessionstore.NewMemoryStore()
	id := sessionstore.NewID()
	a, b := uuid.New(), uuid.New()
	store.Put(id, []byte(`{"cart":{"`+a.String()+`":2,"`+b.String()+`":{"qty":"1.5"},"17":"3"}}`))

	sess, err := store.Load(context.Background(), id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	c, legacy := FromSession(sess)
	if !legacy {
		t.Fatal("expected legacy shapes to be detected")
	}
	if len(c) != 2 || !c.Qty(a).Equal(dec("2")) || !c.Qty(b).Equal(dec("1.5")) {
		t.Fatalf("unexpected cart %v", c)
	}

	c.Save(sess)
	again, legacy := FromSession(sess)
	if legacy {
		t.Fatal("saved cart should be canonical")
	}
	if len(again) != 2 {
		t.Fatalf("unexpected cart after save %v", again)
	}
}

func TestFromSessionNonObjectCart(t *testing.T) {
	sess := sessionstore.New("")
	sess.Set(sessionstore.KeyCart, "oops")
	c, legacy := FromSession(sess)
	if !c.Empty() || !legacy {
		t.Fatalf("expected empty legacy cart, got %v legacy=%v", c, legacy)
	}
}

func TestTotalQuantityToleratesMalformedEntries(t *testing.T) {
	sess := sessionstore.New("")
	sess.Set(sessionstore.KeyCart, map[string]any{
		"a": "not-a-number",
		"b": json.Number("2"),
		"c": map[string]any{"qty": "1.5"},
		"d": []any{"x"},
	})
	if got := TotalQuantity(sess); !got.Equal(dec("3.5")) {
		t.Fatalf("TotalQuantity = %s, want 3.5", got)
	}
	if got := TotalQuantity(sessionstore.New("")); !got.IsZero() {
		t.Fatalf("empty session total = %s", got)
	}
}

func TestClear(t *testing.T) {
	sess := sessionstore.New("")
	c := Cart{uuid.New(): dec("1")}
	c.Save(sess)
	Clear(sess)
	if got, _ := FromSession(sess); !got.Empty() {
		t.Fatalf("expected empty cart, got %v", got)
	}
}
