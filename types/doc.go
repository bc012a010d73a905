// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 convosim 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 dialog、content、transcript
等上层模块提供统一的错误码与 Context 传播约定，以避免循环依赖。

# 核心类型

  - Error / ErrorCode — 结构化错误体系，含 Retryable 标记与按错误码匹配的 Is
  - ErrorCode 分组    — Expander（NO_EXPANDER_FOR_MOVE 等）、Conversation、Content/Store

# 主要能力

  - 错误工具链：AsError / GetErrorCode / IsErrorCode / IsRetryable
  - Context 传播：WithTraceID / WithRunID / WithConversationID / WithContentPack
*/
package types
