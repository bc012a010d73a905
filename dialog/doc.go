// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package dialog 提供对话动作（dialog move）的展开与选择引擎。

# 概述

dialog 是 convosim 的核心包，负责驱动两名参与者之间的多轮模拟对话：
每一轮挑选一个待处理话题或对话动作，通过带前置条件的模板树将其展开为
具体文本，并更新双方的义务（obligation）、话题与目标（goal）账本。

# 核心接口与类型

  - Speaker / Set[T]          — 参与者标识与通用集合
  - ParticipantState          — 单个参与者的话题计数与待履行义务账本
  - TopicState                — 已引入 / 已处理话题集合
  - HistoricalMove            — 单个已实现动作的记录（文本 + 义务/话题增量）
  - Conversation              — 对话聚合根（历史、目标、轮次、冷场续聊概率）
  - Goal                      — 目标接口：PerformMove、RepeatMove、Sequence、
    EagerSequence、Concat
  - MoveNode / Expander       — 模板节点与注册表（三个反向索引，变更时全量重建）
  - TemplateBuilder           — Fluent API 构建模板（含缺失引用与环检测）
  - Manager                   — 回合编排器（Step / StepWithRand / Run）

# 主要能力

  - 前向链接：按部件顺序展开 OR 组，随机尝试备选，不回溯已接受部件
  - 后向链接：将非顶层节点嵌入其父模板（仅一层）
  - 回合规则：当前发言者失败后换人尝试，成功后再次翻转发言者标记
  - 冷场处理：按 LullContinueChance 决定强制闲聊或结束对话
  - 错误分级：ErrNoNodesSatisfyPreconditions 为瞬时错误，缺失展开器为致命错误
  - 可观测性：zap 日志、Recorder 指标回调、每步一个 OpenTelemetry span
  - 并发：多个对话可并发推进，注册表变更通过写锁串行化
*/
package dialog
