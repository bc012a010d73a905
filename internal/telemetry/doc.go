// Package telemetry 封装 OpenTelemetry SDK 初始化逻辑，
// 为 convosim 提供 TracerProvider 和 MeterProvider，dialog.Manager
// 通过 Providers.Tracer 为每个会话步进创建 span。
// 当遥测功能禁用时，使用 noop 实现，不连接任何外部服务。
package telemetry
