package summarizer

import (
	"context"
	"fmt"
	"time"

	"github.com/HildaM/logs/slog"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/hildam/paper-qa-go/agent/comm"
	"github.com/hildam/paper-qa-go/entity/consts"
	"github.com/hildam/paper-qa-go/entity/model"
	"github.com/hildam/paper-qa-go/entity/qaerr"
	"github.com/hildam/paper-qa-go/repo/template"
)

// summarizerImpl 总结者，仅基于检索上下文生成草稿答案，无工具能力
type summarizerImpl[I, O any] struct {
	llm einomodel.BaseChatModel // llm模型服务
}

// NewSummarizer 创建实例
func NewSummarizer[I, O any](llm einomodel.BaseChatModel) *summarizerImpl[I, O] {
	return &summarizerImpl[I, O]{
		llm: llm,
	}
}

// NewGraphNode 创建任务图
func (s *summarizerImpl[I, O]) NewGraphNode(ctx context.Context) (key string, node compose.AnyGraph, nameOption compose.GraphAddNodeOpt) {
	// 创建图实例
	graph := compose.NewGraph[I, O]()

	// 添加节点
	graph.AddLambdaNode("load", compose.InvokableLambdaWithOption(loadMsg))
	graph.AddLambdaNode("agent", compose.InvokableLambdaWithOption(s.invokeModel))
	graph.AddLambdaNode("router", compose.InvokableLambdaWithOption(router))

	// 构造关联
	graph.AddEdge(compose.START, "load")
	graph.AddEdge("load", "agent")
	graph.AddEdge("agent", "router")
	graph.AddEdge("router", compose.END)

	return consts.Summarizer, graph, compose.WithNodeName(consts.Summarizer)
}

// loadMsg 构造总结阶段输入：问题 + 检索上下文。
// 上下文必须存在（可以为空串），缺失说明阶段顺序被破坏
func loadMsg(ctx context.Context, name string, opts ...any) (output []*schema.Message, err error) {
	err = compose.ProcessState[*model.State](ctx, func(ctx context.Context, state *model.State) error {
		if state.Context == nil {
			return fmt.Errorf("summarizer loadMsg failed, context not populated before summarization")
		}

		sysPrompt, err := template.GetPromptTemplate(ctx, name)
		if err != nil {
			slog.Error("loadMsg failed, GetPromptTemplate err = %+v", err)
			return err
		}

		promptTemp := prompt.FromMessages(schema.Jinja2,
			schema.SystemMessage(sysPrompt),
			schema.MessagesPlaceholder("user_input", true),
		)

		userContent := fmt.Sprintf("Question: %s\n\nContext:\n%s", state.Question, *state.Context)
		variables := map[string]any{
			"CURRENT_TIME": time.Now().Format("2006-01-02 15:04:05"),
			"user_input":   []*schema.Message{schema.UserMessage(userContent)},
		}
		output, err = promptTemp.Format(ctx, variables)
		return err
	})
	return output, err
}

// invokeModel 带超时的模型调用
func (s *summarizerImpl[I, O]) invokeModel(ctx context.Context, input []*schema.Message, opts ...any) (*schema.Message, error) {
	tctx, cancel := context.WithTimeout(ctx, comm.StageTimeout())
	defer cancel()

	out, err := s.llm.Generate(tctx, input)
	if err != nil {
		return nil, qaerr.WrapModelErr(consts.Summarizer, err)
	}
	return out, nil
}

// router 写入草稿答案
func router(ctx context.Context, input *schema.Message, opts ...any) (output string, err error) {
	err = compose.ProcessState[*model.State](ctx, func(_ context.Context, state *model.State) error {
		defer func() {
			output = state.Goto
		}()

		state.DraftAnswer = input.Content
		state.Goto = consts.Verifier
		return nil
	})
	return output, err
}
