// Package jwt предоставляет валидацию JWT токенов на основе RS256.
// Оркестратор только проверяет токены (публичный ключ); выдаёт их
// Identity Service. Тот же bearer токен прокидывается без изменений
// во все вызовы нижестоящих сервисов.
package jwt

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims содержит данные JWT токена.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`           // ID пользователя
	TenantID string `json:"tenant_id"`         // ID арендатора (multi-tenancy)
	Role     string `json:"role,omitempty"`    // Роль пользователя (CUSTOMER и т.д.)
}

// Manager управляет валидацией (и, при наличии приватного ключа, подписью)
// JWT токенов. Поддерживает RS256.
type Manager struct {
	privateKey *rsa.PrivateKey // Приватный ключ (только для тестов и issuer)
	publicKey  *rsa.PublicKey  // Публичный ключ (для верификации)
	issuer     string          // Издатель токена
	tokenTTL   time.Duration   // Время жизни подписываемых токенов
}

// Config содержит параметры для создания Manager.
type Config struct {
	PublicKeyPath string        // Путь к публичному ключу (обязательно)
	Issuer        string        // Издатель токена
	TokenTTL      time.Duration // Время жизни подписываемых токенов (для issuer режима)
}

// NewManager создаёт менеджер JWT токенов в режиме валидации.
func NewManager(cfg Config) (*Manager, error) {
	publicKey, err := LoadPublicKey(cfg.PublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки публичного ключа: %w", err)
	}

	return &Manager{
		publicKey: publicKey,
		issuer:    cfg.Issuer,
		tokenTTL:  cfg.TokenTTL,
	}, nil
}

// NewManagerWithKeys создаёт менеджер с готовой парой ключей.
// Используется в тестах для генерации токенов без PEM файлов.
func NewManagerWithKeys(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, issuer string, ttl time.Duration) *Manager {
	return &Manager{
		privateKey: privateKey,
		publicKey:  publicKey,
		issuer:     issuer,
		tokenTTL:   ttl,
	}
}

// GenerateToken подписывает токен с указанными claims.
// Требует наличия приватного ключа.
func (m *Manager) GenerateToken(userID, tenantID, role string) (string, error) {
	if m.privateKey == nil {
		return "", fmt.Errorf("приватный ключ не загружен: подпись токенов недоступна")
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),                      // jti
			Issuer:    m.issuer,                                 // iss
			Subject:   userID,                                   // sub
			IssuedAt:  jwt.NewNumericDate(now),                  // iat
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenTTL)),  // exp
		},
		UserID:   userID,
		TenantID: tenantID,
		Role:     role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(m.privateKey)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}

	return signed, nil
}

// ValidateToken проверяет подпись и срок действия токена, возвращает claims.
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Принимаем только RSA подписи.
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("неожиданный алгоритм подписи: %v", token.Header["alg"])
		}
		return m.publicKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка валидации токена: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("невалидные claims токена")
	}

	return claims, nil
}

// LoadPublicKey загружает RSA публичный ключ из PEM файла.
// Поддерживает форматы PUBLIC KEY (PKIX) и RSA PUBLIC KEY (PKCS#1).
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла %s: %w", path, err)
	}

	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("не удалось декодировать PEM блок из %s", path)
	}

	if block.Type == "RSA PUBLIC KEY" {
		return x509.ParsePKCS1PublicKey(block.Bytes)
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга публичного ключа: %w", err)
	}

	rsaKey, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("ключ не является RSA публичным ключом")
	}

	return rsaKey, nil
}
