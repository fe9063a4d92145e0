// Copyright (c) RetainFlow Authors.
// Licensed under the MIT License.

/*
包 migration 管理 customers 与 audit_entries 两张表的 Schema。

# 概述

PostgreSQL 与 MySQL 走 golang-migrate，SQL 文件通过 embed.FS 内嵌在
migrations/<dialect>/ 下，版本号记录在 schema_migrations 表。SQLite
使用 gorm AutoMigrate（AutoMigrator），不维护版本表，只支持正向迁移。

# 核心类型

  - Migrator：迁移器接口（Up/Down/Steps/Force/Version/Status/Info/Close）。
  - SQLMigrator：golang-migrate 实现。
  - AutoMigrator：gorm AutoMigrate 实现，供 SQLite 使用。
  - CLI：retainflow migrate 子命令的终端输出层。

# 工厂

New 根据 config.DatabaseConfig.Driver 选择实现；DatabaseURL 按方言
拼接连接串。
*/
package migration
