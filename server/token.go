package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/exp/rand"
)

var (
	ErrInvalidToken = errors.New("token is invalid")
	ErrExpiredToken = errors.New("token has expired")
)

// Payload identifies a participant. The participant string is the opaque
// identity selections are keyed by; it carries no authorization.
type Payload struct {
	Participant string
	Expires     int64
}

func (payload *Payload) Valid() error {
	if time.Now().After(time.Unix(payload.Expires, 0)) {
		return ErrExpiredToken
	}
	return nil
}

type Token struct {
	secretKey string
}

// NewToken signs with the given secret, or a random one when empty. A
// random secret invalidates all tokens on restart, which is fine for
// participant identity.
func NewToken(secret string) Token {
	if secret == "" {
		secret = randomSecret(32)
	}
	return Token{secretKey: secret}
}

func randomSecret(n int) string {
	var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

	s := make([]rune, n)
	for i := range s {
		s[i] = letters[rand.Intn(len(letters))]
	}
	return string(s)
}

func (t *Token) CreateToken(participant string, duration time.Duration) (string, error) {
	payload := Payload{Participant: participant, Expires: time.Now().Add(duration).Unix()}
	jwtToken := jwt.NewWithClaims(jwt.SigningMethodHS256, &payload)
	signedToken, err := jwtToken.SignedString([]byte(t.secretKey))
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

func (t *Token) CheckTokenRequest(r *http.Request) (*Payload, error) {
	token := ExtractToken(r)
	if token == "" {
		return nil, ErrInvalidToken
	}
	return t.VerifyToken(token)
}

// ExtractToken reads the bearer token from the Authorization header,
// falling back to the "token" query parameter for websocket clients that
// cannot set headers.
func ExtractToken(r *http.Request) string {
	bearToken := r.Header.Get("Authorization")
	strArr := strings.Split(bearToken, " ")
	if len(strArr) == 2 {
		return strArr[1]
	}
	return r.URL.Query().Get("token")
}

func (t *Token) VerifyToken(token string) (*Payload, error) {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		_, ok := token.Method.(*jwt.SigningMethodHMAC)
		if !ok {
			return nil, ErrInvalidToken
		}
		return []byte(t.secretKey), nil
	}

	jwtToken, err := jwt.ParseWithClaims(token, &Payload{}, keyFunc)
	if err != nil {
		verr, ok := err.(*jwt.ValidationError)
		if ok && errors.Is(verr.Inner, ErrExpiredToken) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	payload, ok := jwtToken.Claims.(*Payload)
	if !ok {
		return nil, ErrInvalidToken
	}

	if payload.Participant == "" {
		return nil, fmt.Errorf("missing participant: %w", ErrInvalidToken)
	}
	return payload, nil
}
