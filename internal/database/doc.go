// Copyright (c) RetainFlow Authors.
// Licensed under the MIT License.

/*
Package database opens the SQL database behind the gorm customer
repository and the database audit sink, and manages its connection pool.

Open selects the dialector by driver name (postgres, mysql, sqlite via the
pure-Go glebarez driver). PoolManager applies pool limits and offers Ping,
Stats, Close and transaction helpers with retry on deadlocks and
serialization failures.
*/
package database
