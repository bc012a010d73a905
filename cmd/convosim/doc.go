// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package main 提供 convosim 命令行程序入口。

# 概述

cmd/convosim 加载内容包（YAML/JSON，或内置演示包），编译为
dialog.Manager，并发模拟多段双人对话，将对话记录保存到所选存储
并输出。程序支持 YAML 配置文件与 CONVOSIM_ 前缀环境变量、结构化
日志（zap）、Prometheus 指标与 OpenTelemetry 追踪。

# 子命令

  - simulate — 模拟对话；命令行参数覆盖配置，--seed 使运行可复现
  - validate — 校验并编译内容包，--watch 在文件变更时重新校验
  - version  — 显示构建注入的 Version、BuildTime、GitCommit
*/
package main
