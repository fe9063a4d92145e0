// Copyright (c) RetainFlow Authors.
// Licensed under the MIT License.

/*
Package workflow 实现会话路由状态机。

Router advances one ConversationState by one customer message. The state
moves through the nodes

	orchestrator ──cancellation──▶ retention ──escalation──▶ processor (terminal)
	     │ ▲                          │ ▲
	     │ └──── general               └──┘ offers
	     └──technical|billing──▶ external (terminal)

Router holds no per-conversation data: callers own each ConversationState
and feed turns sequentially. Advance works on a clone and returns the
original state untouched when any collaborator fails.
*/
package workflow
