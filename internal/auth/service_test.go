package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tier-pay/tier_pay/internal/config"
	"github.com/tier-pay/tier_pay/internal/identity"
)

func testConfig() config.Config {
	return config.Config{
		JWTSecret:       "test-secret",
		RefreshSecret:   "test-refresh-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	}
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	exp := time.Now().Add(time.Minute).Unix()
	token, err := SignHS256(map[string]any{"sub": "user-1", "role": "seller", "exp": exp}, []byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := ParseAndVerifyHS256(token, []byte("secret"))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims["sub"] != "user-1" || claims["role"] != "seller" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := ParseAndVerifyHS256(token, []byte("wrong")); err == nil {
		t.Fatalf("expected signature mismatch")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	exp := time.Now().Add(-time.Minute).Unix()
	token, err := SignHS256(map[string]any{"sub": "user-1", "exp": exp}, []byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ParseAndVerifyHS256(token, []byte("secret")); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected expired token error, got %v", err)
	}
}

func TestVerifyRejectsMissingExp(t *testing.T) {
	token, err := SignHS256(map[string]any{"sub": "user-1"}, []byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ParseAndVerifyHS256(token, []byte("secret")); err == nil {
		t.Fatalf("expected missing exp claim to be rejected")
	}
}

func TestLoginAndRefresh(t *testing.T) {
	repo := identity.NewMemoryRepository()
	ctx := context.Background()

	userID := uuid.NewString()
	if err := repo.Create(ctx, identity.User{ID: userID, Name: "Ada", Phone: "1000", Role: identity.RoleSeller}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	user, _ := repo.FindByID(ctx, userID)

	svc := NewService(testConfig(), repo)
	pair, err := svc.Login(user)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.ExpiresIn <= 0 {
		t.Fatalf("unexpected token pair: %+v", pair)
	}

	claims, err := ParseAndVerifyHS256(pair.AccessToken, []byte("test-secret"))
	if err != nil {
		t.Fatalf("verify access token: %v", err)
	}
	if claims["sub"] != userID || claims["role"] != identity.RoleSeller {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	access, expiresIn, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if access == "" || expiresIn <= 0 {
		t.Fatalf("unexpected refresh result")
	}
}

func TestLogoutInvalidatesRefreshTokens(t *testing.T) {
	repo := identity.NewMemoryRepository()
	ctx := context.Background()

	userID := uuid.NewString()
	if err := repo.Create(ctx, identity.User{ID: userID, Name: "Ada", Phone: "1000", Role: identity.RoleSeller}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	user, _ := repo.FindByID(ctx, userID)

	svc := NewService(testConfig(), repo)
	pair, err := svc.Login(user)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := svc.Logout(ctx, userID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, _, err := svc.Refresh(ctx, pair.RefreshToken); err == nil {
		t.Fatalf("expected stale refresh token to be rejected")
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	svc := NewService(testConfig(), identity.NewMemoryRepository())
	if _, _, err := svc.Refresh(context.Background(), "not.a.token"); err == nil {
		t.Fatalf("expected invalid refresh token error")
	}
}
