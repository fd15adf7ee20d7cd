// Package middleware 提供 Gin 中間件
// 包含 JWT 驗證與請求速率限制
package middleware
