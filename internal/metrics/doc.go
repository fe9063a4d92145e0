// Copyright (c) RetainFlow Authors.
// Licensed under the MIT License.

/*
Package metrics registers the Prometheus metrics of the retention service.

Collector covers the HTTP layer, model calls (including rate-limit waits),
conversation turns, node transitions, escalations, audit appends and the
database pool. It implements workflow.TurnRecorder, llm.CallObserver and
audit.ResultObserver so it can be handed straight to those components.
*/
package metrics
