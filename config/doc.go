// Copyright (c) RetainFlow Authors.
// Licensed under the MIT License.

// Package config 提供 RetainFlow 的配置管理功能。
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量（前缀 RETAINFLOW）。
// FileWatcher 轮询策略文件的修改时间，用于运行时重建策略索引。
package config
