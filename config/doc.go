// Package config 提供 convosim 的配置管理功能。
//
// 包含配置加载（默认值 → YAML 文件 → 环境变量）、配置校验，
// 以及基于轮询的文件变更监听，用于内容包的实时校验。
package config
