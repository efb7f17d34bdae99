package callback

import (
	"context"

	"github.com/HildaM/logs/slog"
	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
)

// LoggerCallback 流水线日志回调，记录每个阶段节点的执行轨迹。
// 每次请求一个实例，RunID 用于串联同一次运行的全部日志
type LoggerCallback struct {
	callbacks.HandlerBuilder // 用 HandlerBuilder 辅助实现 callback

	RunID string // 本次流水线运行的ID
}

// NewLoggerCallback 创建日志回调实例
func NewLoggerCallback() *LoggerCallback {
	return &LoggerCallback{
		RunID: uuid.NewString(),
	}
}

// name 提取组件名称
func name(info *callbacks.RunInfo) string {
	if info == nil {
		return "unknown"
	}
	if info.Name != "" {
		return info.Name
	}
	return string(info.Component)
}

// OnStart 阶段节点开始执行
func (cb *LoggerCallback) OnStart(ctx context.Context, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	slog.Debug("pipeline stage start, run_id = %s, node = %s", cb.RunID, name(info))
	return ctx
}

// OnEnd 阶段节点执行完成
func (cb *LoggerCallback) OnEnd(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	slog.Debug("pipeline stage end, run_id = %s, node = %s", cb.RunID, name(info))
	return ctx
}

// OnError 阶段节点执行失败，失败会中止整个流水线
func (cb *LoggerCallback) OnError(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
	slog.Error("pipeline stage failed, run_id = %s, node = %s, err = %v", cb.RunID, name(info), err)
	return ctx
}

// OnEndWithStreamOutput 流式输出完成，仅做资源清理
func (cb *LoggerCallback) OnEndWithStreamOutput(ctx context.Context, info *callbacks.RunInfo,
	output *schema.StreamReader[callbacks.CallbackOutput]) context.Context {
	defer output.Close()
	slog.Debug("pipeline stage stream end, run_id = %s, node = %s", cb.RunID, name(info))
	return ctx
}

// OnStartWithStreamInput 流式输入开始，仅做资源清理
func (cb *LoggerCallback) OnStartWithStreamInput(ctx context.Context, info *callbacks.RunInfo,
	input *schema.StreamReader[callbacks.CallbackInput]) context.Context {
	defer input.Close()
	return ctx
}
