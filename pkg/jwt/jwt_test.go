package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return NewManagerWithKeys(privateKey, &privateKey.PublicKey, "order-system", time.Hour)
}

// =====================================
// Тесты GenerateToken / ValidateToken
// =====================================

func TestGenerateAndValidate(t *testing.T) {
	m := newTestManager(t)

	token, err := m.GenerateToken("user-1", "tenant-1", "CUSTOMER")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "tenant-1", claims.TenantID)
	assert.Equal(t, "CUSTOMER", claims.Role)
	assert.Equal(t, "order-system", claims.Issuer)
	assert.NotEmpty(t, claims.ID, "jti присутствует")
}

func TestGenerateToken_NoPrivateKey(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	m := NewManagerWithKeys(nil, &privateKey.PublicKey, "order-system", time.Hour)

	_, err = m.GenerateToken("user-1", "tenant-1", "CUSTOMER")
	assert.Error(t, err)
}

func TestValidateToken_Errors(t *testing.T) {
	m := newTestManager(t)

	t.Run("мусор вместо токена", func(t *testing.T) {
		_, err := m.ValidateToken("not.a.token")
		assert.Error(t, err)
	})

	t.Run("токен от другого ключа", func(t *testing.T) {
		other := newTestManager(t)
		token, err := other.GenerateToken("user-1", "tenant-1", "CUSTOMER")
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("истёкший токен", func(t *testing.T) {
		privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		expired := NewManagerWithKeys(privateKey, &privateKey.PublicKey, "order-system", -time.Minute)
		token, err := expired.GenerateToken("user-1", "tenant-1", "CUSTOMER")
		require.NoError(t, err)

		_, err = expired.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("HMAC подпись отклоняется", func(t *testing.T) {
		// alg confusion: токен HS256, подписанный байтами публичного ключа
		hmacToken := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
			"user_id": "user-1",
		})
		signed, err := hmacToken.SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = m.ValidateToken(signed)
		assert.Error(t, err)
	})
}

// =====================================
// Тесты LoadPublicKey
// =====================================

func TestLoadPublicKey(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()

	t.Run("PKIX формат", func(t *testing.T) {
		der, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
		require.NoError(t, err)

		path := filepath.Join(dir, "pkix.pem")
		require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{
			Type: "PUBLIC KEY", Bytes: der,
		}), 0600))

		key, err := LoadPublicKey(path)
		require.NoError(t, err)
		assert.True(t, key.Equal(&privateKey.PublicKey))
	})

	t.Run("PKCS1 формат", func(t *testing.T) {
		path := filepath.Join(dir, "pkcs1.pem")
		require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{
			Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&privateKey.PublicKey),
		}), 0600))

		key, err := LoadPublicKey(path)
		require.NoError(t, err)
		assert.True(t, key.Equal(&privateKey.PublicKey))
	})

	t.Run("файла нет", func(t *testing.T) {
		_, err := LoadPublicKey(filepath.Join(dir, "missing.pem"))
		assert.Error(t, err)
	})

	t.Run("не PEM содержимое", func(t *testing.T) {
		path := filepath.Join(dir, "garbage.pem")
		require.NoError(t, os.WriteFile(path, []byte("not a pem"), 0600))

		_, err := LoadPublicKey(path)
		assert.Error(t, err)
	})
}
