// Copyright (c) RetainFlow Authors.
// Licensed under the MIT License.

/*
包 cache 管理进程内共享的 Redis 连接，并提供客户查询的读穿缓存。

# 核心类型

  - Manager：持有 go-redis 客户端，负责连接、可选 TLS、后台健康检查与关闭。
    会话存储与 Redis 审计流通过 Client 复用同一连接池。
  - CustomerCache：包装客户存储，按邮箱缓存已找到的客户记录；
    UpdateStatus 成功后使对应条目失效。缓存故障只记录日志，不影响查询。

# 错误语义

ErrCacheMiss 表示键不存在，使用 IsCacheMiss 判断。
*/
package cache
