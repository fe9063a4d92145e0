// Copyright (c) RetainFlow Authors.
// Licensed under the MIT License.

/*
Package session keeps active conversation states for the HTTP API.

Store has a memory and a Redis implementation, both expiring idle
conversations after a TTL. Manager serializes turns per conversation; with
the Redis store the lock is also held in Redis, so it spans instances:

	err := mgr.WithConversation(ctx, id, func(s workflow.ConversationState) (workflow.ConversationState, error) {
		next, res, err := router.Advance(ctx, s, msg)
		...
		return next, err
	})

The updated state is saved only when the callback succeeds.
*/
package session
