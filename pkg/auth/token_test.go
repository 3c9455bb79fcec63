package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/config"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/enums"
)

func testJWTConfig(minutes int) config.JWTConfig {
	return config.JWTConfig{
		Secret:            "secret",
		Issuer:            "storefront",
		ExpirationMinutes: minutes,
	}
}

func mint(t *testing.T, cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) string {
	t.Helper()
	token, err := MintAccessToken(cfg, now, payload)
	require.NoError(t, err)
	return token
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig(30)
	now := time.Now().UTC()
	userID := uuid.New()

	token := mint(t, cfg, now, AccessTokenPayload{
		UserID: userID,
		Email:  " Jane@Example.com ",
		Role:   enums.UserRoleCustomer,
		JTI:    "session-1",
	})

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, "jane@example.com", claims.Email)
	assert.Equal(t, enums.UserRoleCustomer, claims.Role)
	assert.Equal(t, "session-1", claims.ID)
	assert.WithinDuration(t, now.Add(30*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestMintAccessTokenGeneratesJTI(t *testing.T) {
	cfg := testJWTConfig(10)
	token := mint(t, cfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleAdmin})

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	_, err = uuid.Parse(claims.ID)
	assert.NoError(t, err)
}

func TestParseAccessTokenRejectsTampering(t *testing.T) {
	cfg := testJWTConfig(10)
	token := mint(t, cfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleCustomer})

	_, err := ParseAccessToken(cfg, token+"x")
	assert.Error(t, err)

	other := cfg
	other.Secret = "another"
	_, err = ParseAccessToken(other, token)
	assert.Error(t, err)

	foreign := cfg
	foreign.Issuer = "someone-else"
	_, err = ParseAccessToken(foreign, token)
	assert.Error(t, err)
	_, err = ParseAccessTokenAllowExpired(foreign, token)
	assert.Error(t, err)
}

func TestParseAccessTokenExpired(t *testing.T) {
	cfg := testJWTConfig(15)
	token := mint(t, cfg, time.Now().Add(-time.Hour), AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleCustomer})

	_, err := ParseAccessToken(cfg, token)
	require.Error(t, err)
	assert.True(t, IsExpired(err))

	claims, err := ParseAccessTokenAllowExpired(cfg, token)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
}

func TestParseAccessTokenToleratesClockSkew(t *testing.T) {
	cfg := testJWTConfig(1)
	// expired 10s ago, inside the skew window
	token := mint(t, cfg, time.Now().Add(-70*time.Second), AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleCustomer})

	_, err := ParseAccessToken(cfg, token)
	assert.NoError(t, err)
}

func TestMintAccessTokenRejectsBadInput(t *testing.T) {
	cfg := testJWTConfig(5)

	_, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: "OWNER"})
	assert.ErrorContains(t, err, "invalid user role")

	_, err = MintAccessToken(cfg, time.Now(), AccessTokenPayload{Role: enums.UserRoleCustomer})
	assert.ErrorContains(t, err, "user id")

	_, err = MintAccessToken(testJWTConfig(0), time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleCustomer})
	assert.ErrorContains(t, err, "expiration")

	noSecret := cfg
	noSecret.Secret = ""
	_, err = MintAccessToken(noSecret, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleCustomer})
	assert.ErrorContains(t, err, "secret")
}
