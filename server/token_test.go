package server

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"
)

func TestToken_RoundTrip(t *testing.T) {
	token := NewToken("test-secret")
	signed, err := token.CreateToken("participant-anna", time.Minute)
	if err != nil {
		t.Fatalf("could not create token: %s", err)
	}

	payload, err := token.VerifyToken(signed)
	if err != nil {
		t.Fatalf("could not verify token: %s", err)
	}
	if payload.Participant != "participant-anna" {
		t.Errorf("token carries participant %q", payload.Participant)
	}
}

func TestToken_Expired(t *testing.T) {
	token := NewToken("test-secret")
	signed, err := token.CreateToken("participant-anna", -time.Minute)
	if err != nil {
		t.Fatalf("could not create token: %s", err)
	}

	if _, err := token.VerifyToken(signed); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestToken_WrongSecret(t *testing.T) {
	token := NewToken("one-secret")
	signed, err := token.CreateToken("participant-anna", time.Minute)
	if err != nil {
		t.Fatalf("could not create token: %s", err)
	}

	other := NewToken("another-secret")
	if _, err := other.VerifyToken(signed); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestToken_Garbage(t *testing.T) {
	token := NewToken("test-secret")
	if _, err := token.VerifyToken("not a token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestExtractToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/game/AAAAAA", nil)
	r.Header.Set("Authorization", "Bearer header-token")
	if got := ExtractToken(r); got != "header-token" {
		t.Errorf("extracted %q from the header", got)
	}

	// Websocket clients cannot set headers and fall back to the query.
	r = httptest.NewRequest("GET", "/api/game/AAAAAA/ws?token=query-token", nil)
	if got := ExtractToken(r); got != "query-token" {
		t.Errorf("extracted %q from the query", got)
	}
}
