// Copyright (c) RetainFlow Authors.
// Licensed under the MIT License.

/*
Package testutil 提供 RetainFlow 测试的共享工具。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout / CancelledContext
  - 断言工具: AssertTranscript（忽略时间戳比较消息）、AssertEventuallyTrue

# 子包

  - testutil/mocks: MockProvider（按系统提示词路由的脚本化 LLM）、
    MockCustomerStore、MockAuditSink，均支持 Builder 模式与错误注入
  - testutil/fixtures: 客户记录与模型输出样例

# 使用示例

	provider := mocks.NewMockProvider().
		On("Classify the customer's intent", fixtures.IntentJSON(types.IntentCancellation, 0.9)).
		WithResponse("I can help with that.")
*/
package testutil
