package utils

import (
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	jwtSecret   = []byte("change_me_in_production")
	tokenExpiry = 240 * time.Hour
)

// Configure 設定簽章密鑰與有效期限，應在伺服器啟動時呼叫一次
func Configure(secret string, expireHours int) {
	if secret != "" {
		jwtSecret = []byte(secret)
	}
	if expireHours > 0 {
		tokenExpiry = time.Duration(expireHours) * time.Hour
	}
}

type Claims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"` // 顯示名稱，Gateway 的 typing 事件會用到
	jwt.StandardClaims
}

// GenerateToken 生成一個新的 JWT token
func GenerateToken(userID, name string) (string, error) {
	nowTime := time.Now()
	expireTime := nowTime.Add(tokenExpiry)

	claims := Claims{
		UserID: userID,
		Name:   name,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expireTime.Unix(),
			IssuedAt:  nowTime.Unix(),
		},
	}

	tokenClaims := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenClaims.SignedString(jwtSecret)
}

// ParseToken 解析和驗證 JWT token
func ParseToken(token string) (*Claims, error) {
	tokenClaims, err := jwt.ParseWithClaims(token, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	})

	if tokenClaims != nil {
		if claims, ok := tokenClaims.Claims.(*Claims); ok && tokenClaims.Valid {
			return claims, nil
		}
	}

	return nil, err
}
