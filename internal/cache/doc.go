// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 cache 封装 go-redis 客户端，为 Redis 对话记录存储提供带前缀的键、
JSON 读写与按时间排序的有序集合索引。

# 核心类型

  - Manager：缓存管理器，持有 Redis 客户端，提供 GetJSON、
    SetJSONIndexed（值与索引在同一 MULTI 事务中写入）、IndexRange、
    IndexRemove 以及 Ping/Close。
  - Config：地址、密码、键前缀、默认 TTL、连接池大小与健康检查间隔。

# 错误语义

ErrCacheMiss 表示键不存在或已过期，ErrClosed 表示管理器已关闭。
*/
package cache
