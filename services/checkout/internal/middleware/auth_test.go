package middleware

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/checkout-service/pkg/jwt"
	"example.com/checkout-service/services/checkout/internal/domain"
)

// newTestJWTManager создаёт менеджер с генерируемой парой ключей.
func newTestJWTManager(t *testing.T) *jwt.Manager {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	return jwt.NewManagerWithKeys(privateKey, &privateKey.PublicKey, "order-system", time.Hour)
}

// setupAuthRouter создаёт роутер с auth middleware и обработчиком,
// который возвращает Principal из контекста.
func setupAuthRouter(m *AuthMiddleware) *gin.Engine {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(m.Handle())
	router.GET("/protected", func(c *gin.Context) {
		p, ok := PrincipalFromGin(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no principal"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user_id":   p.UserID,
			"tenant_id": p.TenantID,
			"token":     p.Token,
		})
	})

	return router
}

func performAuthRequest(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// =====================================
// Тесты AuthMiddleware
// =====================================

func TestAuth_ValidToken(t *testing.T) {
	manager := newTestJWTManager(t)
	token, err := manager.GenerateToken("user-1", "tenant-1", "CUSTOMER")
	require.NoError(t, err)

	router := setupAuthRouter(NewAuthMiddleware(manager, "CUSTOMER"))
	w := performAuthRequest(router, "Bearer "+token)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"user-1"`)
	assert.Contains(t, w.Body.String(), `"tenant_id":"tenant-1"`)
	// Тот же bearer токен доступен для проброса в нижестоящие сервисы
	assert.Contains(t, w.Body.String(), token)
}

func TestAuth_MissingToken(t *testing.T) {
	router := setupAuthRouter(NewAuthMiddleware(newTestJWTManager(t), ""))
	w := performAuthRequest(router, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authorization required")
}

func TestAuth_InvalidToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "мусор вместо токена", header: "Bearer not-a-jwt"},
		{name: "токен от другого ключа", header: ""}, // Заполняется ниже
	}

	// Токен, подписанный другой парой ключей
	otherManager := newTestJWTManager(t)
	foreignToken, err := otherManager.GenerateToken("user-1", "tenant-1", "CUSTOMER")
	require.NoError(t, err)
	tests[1].header = "Bearer " + foreignToken

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupAuthRouter(NewAuthMiddleware(newTestJWTManager(t), ""))
			w := performAuthRequest(router, tt.header)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "Invalid token")
		})
	}
}

func TestAuth_ExpiredToken(t *testing.T) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	// TTL отрицательный — токен истёк в момент выпуска
	manager := jwt.NewManagerWithKeys(privateKey, &privateKey.PublicKey, "order-system", -time.Minute)
	token, err := manager.GenerateToken("user-1", "tenant-1", "CUSTOMER")
	require.NoError(t, err)

	router := setupAuthRouter(NewAuthMiddleware(manager, ""))
	w := performAuthRequest(router, "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_RoleCheck(t *testing.T) {
	manager := newTestJWTManager(t)

	tests := []struct {
		name         string
		role         string
		requiredRole string
		wantStatus   int
	}{
		{name: "роль совпадает", role: "CUSTOMER", requiredRole: "CUSTOMER", wantStatus: http.StatusOK},
		{name: "роль не совпадает", role: "ADMIN", requiredRole: "CUSTOMER", wantStatus: http.StatusForbidden},
		{name: "проверка роли отключена", role: "ADMIN", requiredRole: "", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := manager.GenerateToken("user-1", "tenant-1", tt.role)
			require.NoError(t, err)

			router := setupAuthRouter(NewAuthMiddleware(manager, tt.requiredRole))
			w := performAuthRequest(router, "Bearer "+token)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestPrincipalFromGin_NotSet(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := PrincipalFromGin(c)
	assert.False(t, ok)
}

func TestPrincipalFromGin_WrongType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set("principal", "не principal")

	_, ok := PrincipalFromGin(c)
	assert.False(t, ok)
}

func TestPrincipalFromGin_Set(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set("principal", domain.Principal{UserID: "user-1", TenantID: "tenant-1", Token: "token-1"})

	p, ok := PrincipalFromGin(c)
	require.True(t, ok)
	assert.Equal(t, "user-1", p.UserID)
}
