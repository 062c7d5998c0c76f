// Package sessionstore keeps per-browser storefront state (cart, active
// coupon, flash messages, favorites) behind an explicit Store interface.
//
// Concurrent requests on the same session are last-write-wins: each request
// loads the document, mutates it and saves it whole.
package sessionstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Well-known session keys.
const (
	KeyCart          = "cart"
	KeyCouponCode    = "coupon_code"
	KeyCouponError   = "coupon_error"
	KeyCouponSuccess = "coupon_success"
	KeyFavorites     = "favorites"
	KeyLastOrder     = "last_order_id"
)

// Store loads and persists sessions by id.
type Store interface {
	// Load returns the stored session, or a fresh empty one when id is unknown.
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// Session is a string-keyed bag of JSON-compatible values.
type Session struct {
	id       string
	values   map[string]any
	modified bool
	isNew    bool
}

// New returns an empty session. An empty or malformed id gets a fresh one.
func New(id string) *Session {
	fresh := false
	if !ValidID(id) {
		id = NewID()
		fresh = true
	}
	return &Session{id: id, values: map[string]any{}, isNew: fresh}
}

// NewID returns a random session identifier.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id looks like one NewID could have produced.
func ValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *Session) ID() string { return s.id }

// IsNew is true when the session id was minted by this request.
func (s *Session) IsNew() bool { return s.isNew }

// Modified reports whether Save needs to run.
func (s *Session) Modified() bool { return s.modified }

// MarkModified forces the next Save, e.g. after mutating a nested value in place.
func (s *Session) MarkModified() { s.modified = true }

func (s *Session) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// String returns the value at key when it is a string.
func (s *Session) String(key string) string {
	v, ok := s.values[key].(string)
	if !ok {
		return ""
	}
	return v
}

func (s *Session) Set(key string, value any) {
	s.values[key] = value
	s.modified = true
}

func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; !ok {
		return
	}
	delete(s.values, key)
	s.modified = true
}

// PopString reads and removes a one-shot string value.
func (s *Session) PopString(key string) string {
	v := s.String(key)
	s.Delete(key)
	return v
}

// Map returns the value at key as an object, or nil.
func (s *Session) Map(key string) map[string]any {
	m, _ := s.values[key].(map[string]any)
	return m
}

// StringSlice returns the value at key as a list of strings, skipping
// anything that is not a string.
func (s *Session) StringSlice(key string) []string {
	raw, ok := s.values[key].([]any)
	if !ok {
		if typed, ok := s.values[key].([]string); ok {
			return append([]string(nil), typed...)
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if str, ok := item.(string); ok {
			out = append(out, str)
		}
	}
	return out
}

func (s *Session) encode() ([]byte, error) {
	payload, err := json.Marshal(s.values)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return payload, nil
}

// decode keeps numbers as json.Number so decimal quantities survive the trip.
func decode(id string, payload []byte) (*Session, error) {
	values := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &Session{id: id, values: values}, nil
}
