package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/dgrijalva/jwt-go"
	"github.com/go-chi/render"
	"golang.org/x/crypto/bcrypt"
)

const JWT_AUDIENCE = "crawler"

var (
	JWT_HMAC_SECRET []byte        = []byte("k3QmX0v7c8dbY2hRr6wFq1ZtJ9sNpLaE4uGiVoTyB5M=")
	JWT_LIFESPAN    time.Duration = time.Hour
)

var (
	JWTEmpty       = errors.New("Bearer token not provided")
	JWTInvalid     = errors.New("Invalid token")
	JWTExpired     = errors.New("Token has expired")
	OperatorGone   = errors.New("Operator no longer exists")
	ErrNoOperator  = errors.New("operator is required")
	ErrBadPassword = errors.New("Invalid password")
)

type contextKey string

const operatorContextKey contextKey = "operator"

//---
// Operators
//---

// Operator is someone allowed to drive the crawler over the network.
type Operator struct {
	ID       int    `storm:"increment"`
	Email    string `storm:"unique"`
	Name     string
	Password string // bcrypt hash
	Admin    bool
}

func NewOperator(email, password string, admin bool) (*Operator, error) {
	op := &Operator{Email: email, Name: email, Admin: admin}
	if err := op.SetPassword([]byte(password)); err != nil {
		return nil, err
	}
	return op, nil
}

func (op *Operator) SetPassword(pass []byte) error {
	hash, err := bcrypt.GenerateFromPassword(pass, bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	op.Password = string(hash)
	return nil
}

// VerifyPassword returns the bcrypt error untouched so callers can tell a
// mismatch from a corrupt hash.
func (op *Operator) VerifyPassword(pass []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(op.Password), pass)
}

// OperatorClaims is what a crawler token asserts about its holder.
type OperatorClaims struct {
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
	jwt.StandardClaims
}

func newJWT(op *Operator) (ts string, err error) {
	now := time.Now().UTC()
	claims := OperatorClaims{
		Name:  op.Name,
		Admin: op.Admin,
		StandardClaims: jwt.StandardClaims{
			Audience:  JWT_AUDIENCE,
			Issuer:    ENV.JWT_ISSUER,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(JWT_LIFESPAN).Unix(),
			Subject:   op.Email,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(JWT_HMAC_SECRET)
}

func parseJWT(ts string) (*OperatorClaims, error) {
	claims := new(OperatorClaims)
	token, err := jwt.ParseWithClaims(ts, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return JWT_HMAC_SECRET, nil
	})
	if err != nil {
		var verr *jwt.ValidationError
		if errors.As(err, &verr) && verr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, JWTExpired
		}
		return nil, JWTInvalid
	}
	if !token.Valid || !claims.VerifyAudience(JWT_AUDIENCE, true) {
		return nil, JWTInvalid
	}
	return claims, nil
}

// tokenFromRequest looks in the query string first since browsers cannot set
// headers on a websocket upgrade, then the Authorization header, then a cookie.
func tokenFromRequest(r *http.Request) string {
	if ts := r.URL.Query().Get("jwt"); ts != "" {
		return ts
	}
	if bearer := r.Header.Get("Authorization"); len(bearer) > 7 && strings.EqualFold(bearer[:7], "bearer ") {
		return bearer[7:]
	}
	if cookie, err := r.Cookie("jwt"); err == nil {
		return cookie.Value
	}
	return ""
}

// CurrentOperator returns the claims ValidateJWT attached to the request.
func CurrentOperator(r *http.Request) (*OperatorClaims, bool) {
	claims, ok := r.Context().Value(operatorContextKey).(*OperatorClaims)
	return claims, ok
}

//---
// Views
//---

type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (l *LoginPayload) Bind(r *http.Request) error {
	if l.Email == "" {
		return ErrNoOperator
	}
	return nil
}

type TokenPayload struct {
	Token string `json:"token"`
}

func Login(w http.ResponseWriter, r *http.Request) {
	data := new(LoginPayload)
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	var op Operator
	if err := ENV.DB.One("Email", data.Email, &op); err != nil {
		if errors.Is(err, storm.ErrNotFound) {
			render.Render(w, r, ErrNotFound)
			return
		}
		render.Render(w, r, ErrRender(err))
		return
	}

	if err := op.VerifyPassword([]byte(data.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			render.Render(w, r, ErrPermissionDenied(ErrBadPassword))
			return
		}
		render.Render(w, r, ErrRender(err))
		return
	}

	issueToken(w, r, &op)
}

// JWTRefresh reissues a token from the stored operator, so a removed operator
// or a revoked admin flag takes effect at the next refresh.
func JWTRefresh(w http.ResponseWriter, r *http.Request) {
	claims, ok := CurrentOperator(r)
	if !ok {
		render.Render(w, r, ErrUnauthorized(JWTEmpty))
		return
	}

	var op Operator
	if err := ENV.DB.One("Email", claims.Subject, &op); err != nil {
		if errors.Is(err, storm.ErrNotFound) {
			render.Render(w, r, ErrUnauthorized(OperatorGone))
			return
		}
		render.Render(w, r, ErrRender(err))
		return
	}

	issueToken(w, r, &op)
}

func issueToken(w http.ResponseWriter, r *http.Request, op *Operator) {
	ts, err := newJWT(op)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.JSON(w, r, TokenPayload{ts})
}

//---
// Middleware
//---

func ValidateJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts := tokenFromRequest(r)
		if ts == "" {
			render.Render(w, r, ErrUnauthorized(JWTEmpty))
			return
		}

		claims, err := parseJWT(ts)
		if err != nil {
			render.Render(w, r, ErrUnauthorized(err))
			return
		}

		ctx := context.WithValue(r.Context(), operatorContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
