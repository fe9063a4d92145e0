// Package telemetry 封装 OpenTelemetry SDK 初始化逻辑，
// 为 RetainFlow 提供 TracerProvider 和 MeterProvider。
// 禁用时不创建 exporter，全局 provider 保持 noop，
// 路由器的 "workflow.advance" span 随之成为空操作。
package telemetry
