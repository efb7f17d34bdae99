package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HildaM/logs/slog"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"
	"github.com/hildam/paper-qa-go/agent/comm"
	"github.com/hildam/paper-qa-go/entity/conf"
	"github.com/hildam/paper-qa-go/entity/consts"
	"github.com/hildam/paper-qa-go/entity/model"
	"github.com/hildam/paper-qa-go/entity/qaerr"
	"github.com/hildam/paper-qa-go/repo/serialize"
	"github.com/hildam/paper-qa-go/repo/template"
)

// retrieverImpl 检索协调者。四个阶段中唯一具备工具能力的阶段，
// 通过 ReAct 循环驱动检索工具：有子问题时每个子问题至少检索一次，
// 没有计划时用原始问题检索
type retrieverImpl[I, O any] struct {
	llm  einomodel.ToolCallingChatModel // llm模型服务
	tool *retrievalTool                 // 检索工具，每次请求一个实例
}

// NewRetriever 创建实例
func NewRetriever[I, O any](llm einomodel.ToolCallingChatModel, r Retriever) *retrieverImpl[I, O] {
	return &retrieverImpl[I, O]{
		llm:  llm,
		tool: newRetrievalTool(r, topK()),
	}
}

// NewGraphNode 创建任务图
func (r *retrieverImpl[I, O]) NewGraphNode(ctx context.Context) (key string, node compose.AnyGraph, nameOption compose.GraphAddNodeOpt) {
	// 创建图实例
	graph := compose.NewGraph[I, O]()

	// 创建 ReAct Agent，仅挂载检索工具
	reactAgent, err := react.NewAgent(ctx, &react.AgentConfig{
		MaxStep:               agentMaxStep(),
		ToolCallingModel:      r.llm,
		ToolsConfig:           compose.ToolsNodeConfig{Tools: []tool.BaseTool{r.tool}},
		MessageModifier:       comm.ModifyInputFunc, // 消息长度限制处理器
		StreamToolCallChecker: comm.ToolCallChecker, // 工具调用检测器
	})
	if err != nil {
		slog.Fatal("NewGraphNode failed, create react agent err = %+v", err)
	}

	// 添加节点
	graph.AddLambdaNode("load", compose.InvokableLambdaWithOption(loadMsg))
	graph.AddLambdaNode("agent", compose.InvokableLambdaWithOption(r.invokeAgent(reactAgent)))
	graph.AddLambdaNode("router", compose.InvokableLambdaWithOption(r.router))

	// 构造关联
	graph.AddEdge(compose.START, "load")
	graph.AddEdge("load", "agent")
	graph.AddEdge("agent", "router")
	graph.AddEdge("router", compose.END)

	return consts.Retriever, graph, compose.WithNodeName(consts.Retriever)
}

// loadMsg 构造检索阶段输入：问题，以及存在时的计划与子问题
func loadMsg(ctx context.Context, name string, opts ...any) (output []*schema.Message, err error) {
	err = compose.ProcessState[*model.State](ctx, func(ctx context.Context, state *model.State) error {
		sysPrompt, err := template.GetPromptTemplate(ctx, name)
		if err != nil {
			slog.Error("loadMsg failed, GetPromptTemplate err = %+v", err)
			return err
		}

		promptTemp := prompt.FromMessages(schema.Jinja2,
			schema.SystemMessage(sysPrompt),
			schema.MessagesPlaceholder("user_input", true),
		)

		var sb strings.Builder
		fmt.Fprintf(&sb, "Question: %s", state.Question)
		if state.Plan != "" {
			fmt.Fprintf(&sb, "\n\nPlan: %s", state.Plan)
			if len(state.SubQuestions) > 0 {
				sb.WriteString("\n\nSub-questions to address:")
				for _, sq := range state.SubQuestions {
					fmt.Fprintf(&sb, "\n- %s", sq)
				}
			}
		}

		variables := map[string]any{
			"CURRENT_TIME": time.Now().Format("2006-01-02 15:04:05"),
			"user_input":   []*schema.Message{schema.UserMessage(sb.String())},
		}
		output, err = promptTemp.Format(ctx, variables)
		return err
	})
	return output, err
}

// invokeAgent 带超时执行 ReAct 循环并分类错误
func (r *retrieverImpl[I, O]) invokeAgent(agent *react.Agent) func(ctx context.Context, input []*schema.Message, opts ...any) (*schema.Message, error) {
	return func(ctx context.Context, input []*schema.Message, opts ...any) (*schema.Message, error) {
		tctx, cancel := context.WithTimeout(ctx, comm.StageTimeout())
		defer cancel()

		out, err := agent.Generate(tctx, input)
		if err != nil {
			// 索引不可达已由检索器分类，保持原样中止流水线
			if errors.Is(err, qaerr.ErrRetrievalUnavailable) {
				return nil, err
			}
			return nil, qaerr.WrapModelErr(consts.Retriever, err)
		}
		return out, nil
	}
}

// router 把全部检索段落一次性序列化为上下文并写入状态。
// 所有子问题都零命中时上下文为合法的空串，流水线继续进入总结阶段
func (r *retrieverImpl[I, O]) router(ctx context.Context, input *schema.Message, opts ...any) (output string, err error) {
	err = compose.ProcessState[*model.State](ctx, func(_ context.Context, state *model.State) error {
		defer func() {
			output = state.Goto
		}()

		passages := r.tool.Passages()
		ctxBlock := serialize.Chunks(passages)

		state.Retrieved = passages
		state.Context = &ctxBlock
		state.Goto = consts.Summarizer

		slog.Debug("retriever router done, tool passages = %d, context bytes = %d", len(passages), len(ctxBlock))
		return nil
	})
	return output, err
}

// topK 单次检索返回段落数，配置中的唯一权威取值
func topK() int {
	if cfg := conf.GetCfg(); cfg != nil && cfg.Retrieval.TopK > 0 {
		return cfg.Retrieval.TopK
	}
	return 5
}

// agentMaxStep 检索 agent 最大执行步骤数
func agentMaxStep() int {
	if cfg := conf.GetCfg(); cfg != nil && cfg.Setting.AgentMaxStep > 0 {
		return cfg.Setting.AgentMaxStep
	}
	return 12
}
