package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/HildaM/logs/slog"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/hildam/paper-qa-go/agent/planner"
	"github.com/hildam/paper-qa-go/agent/retriever"
	"github.com/hildam/paper-qa-go/agent/summarizer"
	"github.com/hildam/paper-qa-go/agent/verifier"
	"github.com/hildam/paper-qa-go/entity/consts"
	"github.com/hildam/paper-qa-go/entity/model"
	"github.com/hildam/paper-qa-go/entity/qaerr"
)

// Agent 定义了一个阶段代理接口，用于创建和管理阶段节点
type Agent[I, O any] interface {
	// NewGraphNode 获取阶段节点
	NewGraphNode(ctx context.Context) (key string, node compose.AnyGraph, nameOption compose.GraphAddNodeOpt)
}

// Deps 流水线外部依赖，进程启动时构造一次，所有请求共享。
// 模型客户端与向量索引连接都不携带单请求状态，可安全并发
type Deps struct {
	ChatModel einomodel.ToolCallingChatModel // 检索、总结、校验阶段共用的对话模型
	PlanModel einomodel.BaseChatModel        // 计划模型，JSON Schema 约束输出
	Retriever retriever.Retriever            // 向量索引检索器
}

// BuildQAGraph 构建一次QA运行的流水线图。
// 状态机：Init → Planned → Retrieved → Drafted → Verified → Done，
// 规划关闭时跳过 Planned。转移严格顺序且无条件，任一阶段失败中止整个运行
func BuildQAGraph(ctx context.Context, deps Deps, question string, enablePlanning bool) (compose.Runnable[string, *model.QAResult], error) {
	// 初始化状态，每次请求独占一份
	stateGenFunc := func(ctx context.Context) *model.State {
		return &model.State{
			Question:       strings.TrimSpace(question),
			EnablePlanning: enablePlanning,
			Goto:           consts.Intake,
		}
	}

	// 创建流水线图
	graph := compose.NewGraph[string, *model.QAResult](
		compose.WithGenLocalState(stateGenFunc),
	)

	// 定义阶段实例映射，确保节点名字与实例严格对应
	stageInstances := map[string]Agent[string, string]{
		consts.Planner:    planner.NewPlanner[string, string](deps.PlanModel),
		consts.Retriever:  retriever.NewRetriever[string, string](deps.ChatModel, deps.Retriever),
		consts.Summarizer: summarizer.NewSummarizer[string, string](deps.ChatModel),
		consts.Verifier:   verifier.NewVerifier[string, string](deps.ChatModel),
	}

	// 添加阶段节点
	for stageName, stageInstance := range stageInstances {
		key, node, nameOption := stageInstance.NewGraphNode(ctx)
		if key != stageName {
			slog.Error("Stage key mismatch: expected %s, got %s", stageName, key)
			return nil, fmt.Errorf("stage key mismatch: expected %s, got %s", stageName, key)
		}
		graph.AddGraphNode(key, node, nameOption)
	}

	// 入口与汇总节点
	graph.AddLambdaNode(consts.Intake, compose.InvokableLambdaWithOption(intakeRouter),
		compose.WithNodeName(consts.Intake))
	graph.AddLambdaNode(consts.Finalize, compose.InvokableLambdaWithOption(finalize),
		compose.WithNodeName(consts.Finalize))

	// 入口分支：规划开启走 Planner，否则直达 Retriever
	graph.AddEdge(compose.START, consts.Intake)
	graph.AddBranch(consts.Intake,
		compose.NewGraphBranch(routeToNextStage, map[string]bool{
			consts.Planner:   true,
			consts.Retriever: true,
		}))

	// 线性主链，成功路径上的转移无条件
	graph.AddEdge(consts.Planner, consts.Retriever)
	graph.AddEdge(consts.Retriever, consts.Summarizer)
	graph.AddEdge(consts.Summarizer, consts.Verifier)
	graph.AddEdge(consts.Verifier, consts.Finalize)
	graph.AddEdge(consts.Finalize, compose.END)

	// 编译图
	runnable, err := graph.Compile(ctx,
		compose.WithGraphName(consts.GraphName),
		compose.WithNodeTriggerMode(compose.AnyPredecessor),
	)
	if err != nil {
		slog.Error("BuildQAGraph failed, err = %v", err)
		return nil, err
	}
	return runnable, nil
}

// intakeRouter 入口校验与规划开关路由
func intakeRouter(ctx context.Context, input string, opts ...any) (output string, err error) {
	err = compose.ProcessState[*model.State](ctx, func(_ context.Context, state *model.State) error {
		defer func() {
			output = state.Goto
		}()

		// 空问题在任何阶段执行前拒绝
		if strings.TrimSpace(state.Question) == "" {
			return qaerr.ErrEmptyInput
		}

		if state.EnablePlanning {
			state.Goto = consts.Planner
		} else {
			state.Goto = consts.Retriever
		}
		return nil
	})
	return output, err
}

// finalize 从终态提取对外暴露的字段
func finalize(ctx context.Context, input string, opts ...any) (output *model.QAResult, err error) {
	err = compose.ProcessState[*model.State](ctx, func(_ context.Context, state *model.State) error {
		ctxBlock := ""
		if state.Context != nil {
			ctxBlock = *state.Context
		}
		output = &model.QAResult{
			Answer:       state.Answer,
			Plan:         state.Plan,
			SubQuestions: state.SubQuestions,
			Context:      ctxBlock,
		}
		return nil
	})
	return output, err
}

// routeToNextStage 根据状态中的Goto字段路由到下一个阶段节点
func routeToNextStage(ctx context.Context, input string) (next string, err error) {
	defer func() {
		slog.Debug("route_to_next_stage, input = %s, next = %s", input, next)
	}()
	_ = compose.ProcessState[*model.State](ctx, func(_ context.Context, state *model.State) error {
		next = state.Goto
		return nil
	})
	return next, nil
}
