// Package api 註冊 REST 路由並串接各個 handler
package api
