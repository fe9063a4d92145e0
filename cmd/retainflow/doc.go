// Copyright (c) RetainFlow Authors.
// Licensed under the MIT License.

/*
retainflow 是客户挽留对话服务的命令行入口。

# 子命令

  - serve：启动 HTTP/WebSocket API，含健康检查、Prometheus 指标、
    API Key / JWT 认证、限流与策略目录热重载。
  - chat：终端交互式对话，支持 quit/exit/reset。
  - migrate：数据库迁移（up/down/steps/force/version/status/info）。
  - index：重建策略检索索引并输出分块统计。
  - seed：将客户 CSV 导入数据库。
  - version / health：版本信息与远程健康检查。

所有子命令接受 --config 指定 YAML 配置文件；环境变量以 RETAINFLOW_ 为前缀覆盖配置。
*/
package main
