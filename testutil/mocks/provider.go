// MockProvider 的 LLM 提供商测试模拟实现。
//
// 支持固定响应、按系统提示词路由的脚本响应与错误注入。
package mocks

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/BaSui01/retainflow/llm"
)

// --- MockProvider 结构 ---

type rule struct {
	match    string
	response string
	err      error
}

// MockProvider 是 llm.Provider 的模拟实现
type MockProvider struct {
	mu sync.Mutex

	response       string
	err            error
	rules          []rule
	completionFunc func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)

	failAfter int // 在第 N 次调用后失败
	callCount int
	calls     []MockProviderCall
}

// MockProviderCall 记录单次调用
type MockProviderCall struct {
	Request  *llm.ChatRequest
	Response *llm.ChatResponse
	Error    error
}

// NewMockProvider 创建新的 MockProvider
func NewMockProvider() *MockProvider {
	return &MockProvider{response: "Mock response"}
}

// --- Builder 方法 ---

// WithResponse 设置默认响应
func (m *MockProvider) WithResponse(response string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
	return m
}

// WithError 设置所有调用返回的错误
func (m *MockProvider) WithError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithFailAfter 在第 n 次调用之后失败
func (m *MockProvider) WithFailAfter(n int) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	return m
}

// WithCompletionFunc 使用自定义函数生成响应
func (m *MockProvider) WithCompletionFunc(fn func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completionFunc = fn
	return m
}

// On answers requests whose system prompt contains substr. Rules are
// checked in registration order and the first match wins.
func (m *MockProvider) On(substr, response string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, rule{match: substr, response: response})
	return m
}

// OnError fails requests whose system prompt contains substr.
func (m *MockProvider) OnError(substr string, err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, rule{match: substr, err: err})
	return m
}

// Replace swaps the response of the first rule matching substr, adding one if absent.
func (m *MockProvider) Replace(substr, response string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rules {
		if m.rules[i].match == substr {
			m.rules[i] = rule{match: substr, response: response}
			return m
		}
	}
	m.rules = append(m.rules, rule{match: substr, response: response})
	return m
}

// --- llm.Provider 实现 ---

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true}, ctx.Err()
}

// Completion 生成响应
func (m *MockProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++
	record := func(resp *llm.ChatResponse, err error) (*llm.ChatResponse, error) {
		m.calls = append(m.calls, MockProviderCall{Request: req, Response: resp, Error: err})
		return resp, err
	}

	if err := ctx.Err(); err != nil {
		return record(nil, err)
	}
	if m.failAfter > 0 && m.callCount > m.failAfter {
		return record(nil, errors.New("mock provider: configured to fail after N calls"))
	}
	if m.err != nil {
		return record(nil, m.err)
	}
	if m.completionFunc != nil {
		return record(m.completionFunc(ctx, req))
	}

	content := m.response
	system := SystemPrompt(req)
	for _, r := range m.rules {
		if strings.Contains(system, r.match) {
			if r.err != nil {
				return record(nil, r.err)
			}
			content = r.response
			break
		}
	}
	return record(TextResponse(req.Model, content), nil)
}

// --- 调用记录 ---

// Calls 返回调用记录副本
func (m *MockProvider) Calls() []MockProviderCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockProviderCall(nil), m.calls...)
}

// CallCount 返回调用次数
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// CallsMatching counts calls whose system prompt contains substr.
func (m *MockProvider) CallsMatching(substr string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if strings.Contains(SystemPrompt(c.Request), substr) {
			n++
		}
	}
	return n
}

// Reset 清空调用记录
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.callCount = 0
}

// SystemPrompt returns the first system message of req.
func SystemPrompt(req *llm.ChatRequest) string {
	if req == nil {
		return ""
	}
	for _, msg := range req.Messages {
		if msg.Role == llm.RoleSystem {
			return msg.Content
		}
	}
	return ""
}

// TextResponse builds a single-choice response.
func TextResponse(model, content string) *llm.ChatResponse {
	return &llm.ChatResponse{
		ID:       "mock-response-id",
		Provider: "mock",
		Model:    model,
		Choices: []llm.ChatChoice{{
			FinishReason: "stop",
			Message:      llm.Message{Role: llm.RoleAssistant, Content: content},
		}},
		CreatedAt: time.Now(),
	}
}
