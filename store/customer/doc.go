// Copyright (c) RetainFlow Authors.
// Licensed under the MIT License.

/*
Package customer provides the customer record store behind the
identification gate and the processor's status mirror.

Two backends implement Store:

  - CSVStore reads data/customers.csv once and serves lookups from memory.
  - GormStore keeps records in the customers table (postgres, mysql, sqlite).

Lookups match email case-insensitively. A miss is reported as a record with
Found=false, never as an error.
*/
package customer
