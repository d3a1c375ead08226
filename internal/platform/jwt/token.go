// Package jwtauth は署名付きで期限のあるセッショントークンを発行・検証します。
package jwtauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer はすべてのトークンに入れる iss クレームです。
const Issuer = "employee-backend"

var (
	// ErrInvalidToken は不正な形式、署名の不一致、想定外のアルゴリズムのトークンです。
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken は exp クレームを過ぎたトークンに返されます。
	ErrExpiredToken = errors.New("token has expired")
)

// Claims はセッショントークンの検証済みの内容です。
type Claims struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

// Manager はプロセス共通のシークレットで HS256 トークンを署名・検証します。
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager は指定されたシークレットと有効期間の Manager を生成します。
func NewManager(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock は now から時刻を読む m のコピーを返します。テスト用です。
func (m *Manager) WithClock(now func() time.Time) *Manager {
	cp := *m
	cp.now = now
	return &cp
}

// TTL はトークンの有効期間を返します。
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue は userID を subject とするトークンに署名し、有効期限とともに返します。
func (m *Manager) Issue(userID string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   userID,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify は署名、アルゴリズム、発行者、有効期限を確認してクレームを返します。
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	var rc jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenStr, &rc, func(t *jwt.Token) (any, error) {
		// HMAC のみ受け付ける（"none" もここで弾く）
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpiredToken, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || rc.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID:    rc.Subject,
		TokenID:   rc.ID,
		ExpiresAt: rc.ExpiresAt.Time.UTC(),
	}, nil
}
