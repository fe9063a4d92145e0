// Package tlsutil 提供集中式 TLS 配置：LLM HTTP 客户端、HTTPS API 服务与
// Redis 连接共用同一套加固设置（TLS 1.2+，仅 AEAD 密码套件）。
package tlsutil
