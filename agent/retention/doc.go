// Copyright (c) RetainFlow Authors.
// Licensed under the MIT License.

/*
Package retention runs the retention negotiation: it decides when a
customer who insists on cancelling must be handed to the processor,
detects why they want to leave, and writes personalised replies that
may carry one concrete offer.

# Escalation

EscalationPolicy is a pure function over two injected phrase lexicons.
A message escalates when it contains an insistence phrase and either at
least MinOffersBeforeEscalation offers were already made or it also
contains a refusal phrase.

# Offers

Calculator maps a cancellation reason and customer tier onto the offer
catalogue in retention_rules.json. Agent lists those offers to the model
and records the one the reply commits to through an [OFFER:<type>] marker.
No new offers are recorded once OfferSoftCap is reached.
*/
package retention
