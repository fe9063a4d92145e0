// Copyright (c) RetainFlow Authors.
// Licensed under the MIT License.

/*
Package audit records account actions (cancel, pause, downgrade, ...) to one
or more append-only sinks.

Sinks:

  - FileSink     JSON Lines file, the default (data/customer_actions.log)
  - GormSink     audit_entries table
  - RedisSink    capped Redis stream
  - MongoSink    MongoDB collection
  - KafkaSink    Kafka topic keyed by entry id

Multi fans an entry out to several sinks. Build assembles the sinks named in
config.AuditConfig.
*/
package audit
