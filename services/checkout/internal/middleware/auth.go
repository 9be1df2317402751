// Package middleware содержит HTTP middleware Checkout Service.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"example.com/checkout-service/pkg/jwt"
	"example.com/checkout-service/pkg/logger"
	"example.com/checkout-service/services/checkout/internal/domain"
	"example.com/checkout-service/services/checkout/internal/httputil"
)

// Ключ Gin context для аутентифицированного Principal.
const principalKey = "principal"

// TokenValidator — интерфейс валидации токенов.
// Позволяет мокировать в тестах вместо реального jwt.Manager.
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwt.Claims, error)
}

// AuthMiddleware проверяет JWT токен локально (RS256, публичный ключ)
// и кладёт Principal в контекст запроса. Тот же bearer токен затем
// прокидывается в нижестоящие сервисы — токен живёт только в запросе,
// глобального состояния с токеном нет.
type AuthMiddleware struct {
	validator    TokenValidator
	requiredRole string
}

// NewAuthMiddleware создаёт middleware аутентификации.
// requiredRole — обязательная роль пользователя (пустая строка отключает проверку).
func NewAuthMiddleware(validator TokenValidator, requiredRole string) *AuthMiddleware {
	return &AuthMiddleware{
		validator:    validator,
		requiredRole: requiredRole,
	}
}

// Handle возвращает Gin handler function для middleware.
func (m *AuthMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		log := logger.FromContext(ctx)

		token := httputil.ExtractBearerToken(c)
		if token == "" {
			log.Debug().Msg("Отсутствует токен авторизации")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Authorization required",
			})
			return
		}

		claims, err := m.validator.ValidateToken(token)
		if err != nil {
			log.Warn().Err(err).Msg("Ошибка валидации токена")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Invalid token",
			})
			return
		}

		if m.requiredRole != "" && claims.Role != m.requiredRole {
			log.Warn().
				Str("role", claims.Role).
				Str("required_role", m.requiredRole).
				Msg("Недостаточно прав для операции checkout")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "forbidden",
				"message": "Insufficient permissions",
			})
			return
		}

		userID := claims.UserID
		if userID == "" {
			userID = claims.Subject
		}

		c.Set(principalKey, domain.Principal{
			UserID:   userID,
			TenantID: claims.TenantID,
			Token:    token,
		})

		log.Debug().
			Str("user_id", userID).
			Str("tenant_id", claims.TenantID).
			Msg("Пользователь аутентифицирован")

		c.Next()
	}
}

// PrincipalFromGin извлекает Principal из Gin context.
// Возвращает false, если auth middleware не отработал.
func PrincipalFromGin(c *gin.Context) (domain.Principal, bool) {
	value, exists := c.Get(principalKey)
	if !exists {
		return domain.Principal{}, false
	}

	principal, ok := value.(domain.Principal)
	return principal, ok
}
