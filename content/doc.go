// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package content 提供声明式对话内容包（YAML/JSON），
将节点、前置条件、输出模板、历史修改效果和会话框架
编译为 dialog 包可直接使用的模板注册表与 Frame。

# 内容包结构

  - nodes：扩展节点，声明实现的动作（moves）、回应的话题（topics）、
    子段（parts）、前置条件（when）、文本（texts/format）和效果（effects）
  - frames：新会话初始化时推送义务、引入话题并添加目标
  - lull_move：双方都无话可说时尝试的动作

# 模板占位符

{0}..{n} 为子段输出，{text} 为随机选中的文本，
{me.key} 与 {other.key} 通过 Attributes 接口读取角色属性。

Demo 返回内置演示内容包。
*/
package content
