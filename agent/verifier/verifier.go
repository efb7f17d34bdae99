package verifier

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

// verifierImpl 校验者，逐条核对草稿答案与上下文，剔除无依据的断言。
// 与草稿不一致时做尽力修正，不会让流水线失败
type verifierImpl[I, O any] struct {
	llm einomodel.BaseChatModel // llm模型服务
}

// NewVerifier 创建实例
func NewVerifier[I, O any](llm einomodel.BaseChatModel) *verifierImpl[I, O] {
	return &verifierImpl[I, O]{
		llm: llm,
	}
}

// NewGraphNode 创建任务图
func (v *verifierImpl[I, O]) NewGraphNode(ctx context.Context) (key string, node compose.AnyGraph, nameOption compose.GraphAddNodeOpt) {
	// 创建图实例
	graph := compose.NewGraph[I, O]()

	// 添加节点
	graph.AddLambdaNode("load", compose.InvokableLambdaWithOption(loadMsg))
	graph.AddLambdaNode("agent", compose.InvokableLambdaWithOption(v.invokeModel))
	graph.AddLambdaNode("router", compose.InvokableLambdaWithOption(router))

	// 构造关联
	graph.AddEdge(compose.START, "load")
	graph.AddEdge("load", "agent")
	graph.AddEdge("agent", "router")
	graph.AddEdge("router", compose.END)

	return consts.Verifier, graph, compose.WithNodeName(consts.Verifier)
}

// loadMsg 构造校验阶段输入：问题 + 上下文 + 草稿答案，三者必须齐备
func loadMsg(ctx context.Context, name string, opts ...any) (output []*schema.Message, err error) {
	err = compose.ProcessState[*model.State](ctx, func(ctx context.Context, state *model.State) error {
		if state.Context == nil {
			return fmt.Errorf("verifier loadMsg failed, context not populated before verification")
		}
		if state.DraftAnswer == "" {
			return fmt.Errorf("verifier loadMsg failed, draft answer not populated before verification")
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

		userContent := fmt.Sprintf(
			"Question: %s\n\nContext:\n%s\n\nDraft Answer:\n%s\n\nPlease verify and correct the draft answer, removing any unsupported claims.",
			state.Question, *state.Context, state.DraftAnswer)
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
func (v *verifierImpl[I, O]) invokeModel(ctx context.Context, input []*schema.Message, opts ...any) (*schema.Message, error) {
	tctx, cancel := context.WithTimeout(ctx, comm.StageTimeout())
	defer cancel()

	out, err := v.llm.Generate(tctx, input)
	if err != nil {
		return nil, qaerr.WrapModelErr(consts.Verifier, err)
	}
	return out, nil
}

// router 写入最终答案。答案由草稿推导而来，对外只暴露这一个字段
func router(ctx context.Context, input *schema.Message, opts ...any) (output string, err error) {
	err = compose.ProcessState[*model.State](ctx, func(_ context.Context, state *model.State) error {
		defer func() {
			output = state.Goto
		}()

		state.Answer = input.Content
		state.Goto = consts.Finalize
		return nil
	})
	return output, err
}
