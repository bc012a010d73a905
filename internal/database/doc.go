// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 database 提供基于 GORM 的数据库连接池管理，供对话记录的 SQL 存储使用。

# 概述

Open 根据驱动名（sqlite、postgres、mysql）选择 GORM 方言并建立连接，
PoolManager 统一管理连接生命周期、空闲回收与最大连接数限制。
sqlite 固定使用单连接。后台健康检查定时探活，Close 后退出。

# 核心类型

  - PoolManager：持有 GORM DB 实例与底层 sql.DB，
    提供 DB()、Ping()、Stats()、Close() 等生命周期方法。
  - PoolConfig：连接池配置，包含最大空闲连接数、最大打开连接数、
    连接最大生命周期、空闲超时与健康检查间隔。
  - TransactionFunc：事务回调函数类型。

# 主要能力

  - 事务管理：WithTransaction 提供单次事务执行，
    WithTransactionRetry 对死锁、序列化失败、SQLite 写锁冲突按指数退避重试。
  - 错误语义：不支持的驱动返回 types.ErrUnsupportedStoreType，
    连接失败返回可重试的 types.ErrStoreUnavailable。
*/
package database
