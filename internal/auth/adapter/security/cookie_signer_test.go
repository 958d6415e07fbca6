package security

import (
	"testing"
	"time"

	"bus-tracker/internal/auth/config"
	"bus-tracker/internal/auth/domain/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CookieSignerTestSuite struct {
	suite.Suite
	config *config.Config
	signer *JWTCookieSigner
}

func (suite *CookieSignerTestSuite) SetupTest() {
	suite.config = &config.Config{
		SessionSecret: "test-secret-key-32-characters-long-12345",
		SessionIssuer: "test-issuer",
		SessionTTL:    time.Hour,
	}
	signer, err := NewJWTCookieSigner(suite.config)
	require.NoError(suite.T(), err)
	suite.signer = signer
}

func (suite *CookieSignerTestSuite) TestNewJWTCookieSigner_ValidationErrors() {
	testCases := []struct {
		name   string
		modify func(*config.Config)
	}{
		{"empty secret", func(c *config.Config) { c.SessionSecret = "" }},
		{"empty issuer", func(c *config.Config) { c.SessionIssuer = "" }},
		{"zero ttl", func(c *config.Config) { c.SessionTTL = 0 }},
	}
	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			cfg := *suite.config
			tc.modify(&cfg)
			_, err := NewJWTCookieSigner(&cfg)
			assert.Error(suite.T(), err)
		})
	}
}

func (suite *CookieSignerTestSuite) TestSignVerify_RoundTrip() {
	value, err := suite.signer.Sign("session-token-1")
	require.NoError(suite.T(), err)
	assert.NotEqual(suite.T(), "session-token-1", value)

	token, err := suite.signer.Verify(value)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "session-token-1", token)
}

func (suite *CookieSignerTestSuite) TestSign_EmptyToken() {
	_, err := suite.signer.Sign("")
	assert.ErrorIs(suite.T(), err, model.ErrCookieInvalid)
}

func (suite *CookieSignerTestSuite) TestVerify_Tampered() {
	value, err := suite.signer.Sign("tok")
	require.NoError(suite.T(), err)

	_, err = suite.signer.Verify(value + "x")
	assert.ErrorIs(suite.T(), err, model.ErrCookieInvalid)

	_, err = suite.signer.Verify("not-a-jwt")
	assert.ErrorIs(suite.T(), err, model.ErrCookieInvalid)

	_, err = suite.signer.Verify("")
	assert.ErrorIs(suite.T(), err, model.ErrCookieInvalid)
}

func (suite *CookieSignerTestSuite) TestVerify_WrongSecret() {
	value, err := suite.signer.Sign("tok")
	require.NoError(suite.T(), err)

	other := *suite.config
	other.SessionSecret = "another-secret"
	otherSigner, err := NewJWTCookieSigner(&other)
	require.NoError(suite.T(), err)

	_, err = otherSigner.Verify(value)
	assert.ErrorIs(suite.T(), err, model.ErrCookieInvalid)
}

func (suite *CookieSignerTestSuite) TestVerify_Expired() {
	past := time.Now().Add(-2 * time.Hour)
	suite.signer.now = func() time.Time { return past }
	value, err := suite.signer.Sign("tok")
	require.NoError(suite.T(), err)

	suite.signer.now = time.Now
	_, err = suite.signer.Verify(value)
	assert.ErrorIs(suite.T(), err, model.ErrCookieInvalid)
}

func (suite *CookieSignerTestSuite) TestVerify_RejectsNoneAlgorithm() {
	claims := jwt.MapClaims{"sid": "tok", "iss": "test-issuer"}
	value, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(suite.T(), err)

	_, err = suite.signer.Verify(value)
	assert.ErrorIs(suite.T(), err, model.ErrCookieInvalid)
}

func TestCookieSignerTestSuite(t *testing.T) {
	suite.Run(t, new(CookieSignerTestSuite))
}
