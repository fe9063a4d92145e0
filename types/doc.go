// Copyright (c) RetainFlow Authors.
// Licensed under the MIT License.

/*
Package types holds the shared types of the retainflow support system.

# Overview

types is the bottom package of the module. It depends on no other
retainflow package so that agent, workflow, llm, store and api can share one
set of contracts without import cycles.

# Core types

  - Message / Role        — one transcript entry (customer or agent)
  - CustomerRecord        — customer-store lookup result
  - Intent / IntentResult — coarse intent classification
  - Offer / OfferType     — one retention incentive presented to a customer
  - AccountAction         — closed set of account mutations
  - ActionResult          — outcome of an account mutation
  - AuditEntry            — immutable account-action log record
  - Error / ErrorCode     — structured errors with HTTP status and retry flag

# Context helpers

WithConversationID / ConversationID and WithRequestID / RequestID carry
correlation ids through collaborator calls for logging.
*/
package types
