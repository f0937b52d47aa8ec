package llm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient Client接口的mock实现，供各包测试使用
type MockClient struct {
	mock.Mock
}

// MockClient_Expecter 链式设置期望
type MockClient_Expecter struct {
	mock *mock.Mock
}

// EXPECT 返回期望设置器
func (_m *MockClient) EXPECT() *MockClient_Expecter {
	return &MockClient_Expecter{mock: &_m.Mock}
}

// Generate provides a mock function
func (_m *MockClient) Generate(ctx context.Context, prompt string, options ...CallOption) (*Response, error) {
	_ca := []interface{}{ctx, prompt}
	for _, opt := range options {
		_ca = append(_ca, opt)
	}
	ret := _m.Called(_ca...)

	var r0 *Response
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, ...CallOption) (*Response, error)); ok {
		return rf(ctx, prompt, options...)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Response)
	}
	r1 = ret.Error(1)
	return r0, r1
}

// MockClient_Generate_Call Generate调用的期望
type MockClient_Generate_Call struct {
	*mock.Call
}

// Generate 设置Generate的期望参数
func (_e *MockClient_Expecter) Generate(ctx interface{}, prompt interface{}, options ...interface{}) *MockClient_Generate_Call {
	return &MockClient_Generate_Call{Call: _e.mock.On("Generate", append([]interface{}{ctx, prompt}, options...)...)}
}

// Return 设置返回值
func (_c *MockClient_Generate_Call) Return(resp *Response, err error) *MockClient_Generate_Call {
	_c.Call.Return(resp, err)
	return _c
}

// RunAndReturn 使用函数计算返回值
func (_c *MockClient_Generate_Call) RunAndReturn(run func(context.Context, string, ...CallOption) (*Response, error)) *MockClient_Generate_Call {
	_c.Call.Return(run)
	return _c
}

// Times 设置调用次数
func (_c *MockClient_Generate_Call) Times(n int) *MockClient_Generate_Call {
	_c.Call.Times(n)
	return _c
}

// Chat provides a mock function
func (_m *MockClient) Chat(ctx context.Context, messages []Message, options ...CallOption) (*Response, error) {
	_ca := []interface{}{ctx, messages}
	for _, opt := range options {
		_ca = append(_ca, opt)
	}
	ret := _m.Called(_ca...)

	var r0 *Response
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, []Message, ...CallOption) (*Response, error)); ok {
		return rf(ctx, messages, options...)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Response)
	}
	r1 = ret.Error(1)
	return r0, r1
}

// MockClient_Chat_Call Chat调用的期望
type MockClient_Chat_Call struct {
	*mock.Call
}

// Chat 设置Chat的期望参数
func (_e *MockClient_Expecter) Chat(ctx interface{}, messages interface{}, options ...interface{}) *MockClient_Chat_Call {
	return &MockClient_Chat_Call{Call: _e.mock.On("Chat", append([]interface{}{ctx, messages}, options...)...)}
}

// Return 设置返回值
func (_c *MockClient_Chat_Call) Return(resp *Response, err error) *MockClient_Chat_Call {
	_c.Call.Return(resp, err)
	return _c
}

// RunAndReturn 使用函数计算返回值
func (_c *MockClient_Chat_Call) RunAndReturn(run func(context.Context, []Message, ...CallOption) (*Response, error)) *MockClient_Chat_Call {
	_c.Call.Return(run)
	return _c
}

// Times 设置调用次数
func (_c *MockClient_Chat_Call) Times(n int) *MockClient_Chat_Call {
	_c.Call.Times(n)
	return _c
}

// Name provides a mock function
func (_m *MockClient) Name() string {
	ret := _m.Called()
	if len(ret) == 0 {
		return "mock"
	}
	return ret.String(0)
}

// MockClient_Name_Call Name调用的期望
type MockClient_Name_Call struct {
	*mock.Call
}

// Name 设置Name的期望
func (_e *MockClient_Expecter) Name() *MockClient_Name_Call {
	return &MockClient_Name_Call{Call: _e.mock.On("Name")}
}

// Return 设置返回值
func (_c *MockClient_Name_Call) Return(name string) *MockClient_Name_Call {
	_c.Call.Return(name)
	return _c
}

// NewMockClient 创建mock客户端，测试结束时自动校验期望
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	m := &MockClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
