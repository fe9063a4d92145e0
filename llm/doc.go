// Copyright (c) RetainFlow Authors.
// Licensed under the MIT License.

/*
Package llm defines the language-model call boundary used by the agents.

Caller is the single-method capability every agent depends on. Concrete
transports (see providers/openaicompat) implement Provider, and the
retry package decorates any Caller with rate-limit backoff.

Errors returned by providers are *Error values carrying an ErrorCode,
the upstream HTTP status and a retryable flag; IsRateLimited recognises
every rate-limit signal a provider can surface.
*/
package llm
