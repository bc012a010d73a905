// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 提供模拟运行期间的指标 HTTP 服务器生命周期管理。

# 概述

Manager 封装 net/http.Server，负责非阻塞启动、优雅关闭与异步错误
传播。NewMetricsHandler 构建挂载 /metrics（Prometheus 抓取）与
/healthz（存储健康检查）的路由，供 convosim simulate 使用。

# 核心类型

  - Manager：持有 http.Server、net.Listener 与错误通道。
  - Config：监听地址、读写超时与优雅关闭超时。
  - HealthFunc：健康检查回调。
*/
package server
