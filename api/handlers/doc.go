// Copyright (c) RetainFlow Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 RetainFlow HTTP API 与 WebSocket 的请求处理器。

# 核心类型

  - ConversationHandler：会话 REST 接口（创建、发送消息、查询、结束）
  - WSHandler：WebSocket 会话，连接 goroutine 独占会话状态
  - AuditHandler：按客户查询审计记录
  - HealthHandler：/health、/healthz、/ready、/version
  - Response / ErrorInfo：统一 JSON 响应结构

# 错误映射

WriteError 把 types.Error、types.ErrConversationEnded 与
session.ErrNotFound 映射为 HTTP 状态码；TURN_FAILED 只返回通用提示，
原始错误仅写入日志。
*/
package handlers
