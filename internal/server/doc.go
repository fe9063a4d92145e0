// Copyright (c) RetainFlow Authors.
// Licensed under the MIT License.

/*
Package server manages the lifecycle of the API and metrics HTTP servers.

Manager wraps net/http.Server with non-blocking Start/StartTLS, graceful
Shutdown bounded by a timeout, and Run, which serves until the context is
cancelled or the server fails. cmd/retainflow runs one Manager per port
inside an errgroup.
*/
package server
