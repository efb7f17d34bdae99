package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/HildaM/logs/slog"
	"github.com/cloudwego/eino/compose"
	"github.com/hildam/paper-qa-go/agent"
	"github.com/hildam/paper-qa-go/entity/consts"
	"github.com/hildam/paper-qa-go/entity/model"
	"github.com/hildam/paper-qa-go/entity/qaerr"
	"github.com/hildam/paper-qa-go/repo/callback"
	"github.com/hildam/paper-qa-go/repo/metrics"
)

// Pipeline 问答流水线入口，进程内共享，单次 Answer 调用各自持有独立状态
type Pipeline struct {
	deps agent.Deps
}

// New 创建问答流水线
func New(deps agent.Deps) *Pipeline {
	return &Pipeline{deps: deps}
}

// Answer 执行一次完整的问答运行
func (p *Pipeline) Answer(ctx context.Context, question string, usePlanning bool) (*model.QAResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, qaerr.ErrEmptyInput
	}

	metrics.QARequests.WithLabelValues(strconv.FormatBool(usePlanning)).Inc()
	start := time.Now()

	// 每次请求重新构建图，状态不跨请求复用
	runnable, err := agent.BuildQAGraph(ctx, p.deps, question, usePlanning)
	if err != nil {
		slog.Error("BuildQAGraph failed, err = %v", err)
		metrics.QAFailures.WithLabelValues(failureKind(err)).Inc()
		return nil, err
	}

	result, err := runnable.Invoke(ctx, consts.Intake,
		compose.WithCallbacks(callback.NewLoggerCallback()))
	metrics.QADuration.Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Error("qa run failed, question = %s, err = %v", question, err)
		metrics.QAFailures.WithLabelValues(failureKind(err)).Inc()
		return nil, err
	}

	slog.Info("qa run finished, question = %s, elapsed = %s", question, time.Since(start))
	return result, nil
}

// failureKind 错误归类，用于失败计数的标签
func failureKind(err error) string {
	switch {
	case errors.Is(err, qaerr.ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, qaerr.ErrMalformedAgentOutput):
		return "malformed_agent_output"
	case errors.Is(err, qaerr.ErrRetrievalUnavailable):
		return "retrieval_unavailable"
	case errors.Is(err, qaerr.ErrStageTimeout):
		return "stage_timeout"
	case errors.Is(err, qaerr.ErrModelUnavailable):
		return "model_unavailable"
	default:
		return "unknown"
	}
}
