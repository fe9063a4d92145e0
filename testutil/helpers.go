// =============================================================================
// 🧪 测试辅助函数
// =============================================================================
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/BaSui01/retainflow/types"
)

// =============================================================================
// 🎯 上下文辅助
// =============================================================================

// TestContext 返回带超时的测试上下文
func TestContext(t *testing.T) context.Context {
	return TestContextWithTimeout(t, 30*time.Second)
}

// TestContextWithTimeout 返回带自定义超时的测试上下文
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext 返回已取消的上下文
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// =============================================================================
// 🔍 断言辅助
// =============================================================================

// TranscriptLine is a message without its timestamp.
type TranscriptLine struct {
	Role    types.Role
	Agent   string
	Content string
}

// AssertTranscript 比较消息的角色、来源节点与内容，忽略时间戳
func AssertTranscript(t *testing.T, expected []TranscriptLine, actual []types.Message) {
	t.Helper()

	if len(expected) != len(actual) {
		t.Errorf("message count mismatch: expected %d, got %d", len(expected), len(actual))
		return
	}
	for i, m := range actual {
		got := TranscriptLine{Role: m.Role, Agent: m.Agent, Content: m.Content}
		if got != expected[i] {
			t.Errorf("message %d mismatch:\nexpected: %+v\nactual:   %+v", i, expected[i], got)
		}
	}
}

// AssertEventuallyTrue 断言条件最终为真
func AssertEventuallyTrue(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("condition did not become true within %v", timeout)
}
