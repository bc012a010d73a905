// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的对话模拟指标采集能力。

# 概述

Collector 实现 dialog.Recorder，由 dialog.Manager 在每次实现尝试、
每个会话步进以及会话结束时回调。指标注册在调用方传入的
prometheus.Registerer 上，按 namespace 隔离，便于测试使用独立 Registry。

# 指标

  - realizations_total{kind,outcome}：move/topic/lull 实现尝试次数，
    outcome 为 realized/blocked/failed。
  - realization_duration_seconds{kind}：展开搜索耗时。
  - steps_total{outcome}：步进结果计数（spoke/lull/ended/error）。
  - conversation_turns：结束会话的轮数分布。
  - transcripts_saved_total{driver,status}：对话记录保存结果。
*/
package metrics
