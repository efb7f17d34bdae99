package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
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

// plannerImpl 规划者，把问题分解为检索计划与子问题
type plannerImpl[I, O any] struct {
	llm einomodel.BaseChatModel // 计划模型，响应约束为 JSON Schema
}

// NewPlanner 创建实例
func NewPlanner[I, O any](llm einomodel.BaseChatModel) *plannerImpl[I, O] {
	return &plannerImpl[I, O]{
		llm: llm,
	}
}

// NewGraphNode 创建任务图
func (p *plannerImpl[I, O]) NewGraphNode(ctx context.Context) (key string, node compose.AnyGraph, nameOption compose.GraphAddNodeOpt) {
	// 创建图实例
	graph := compose.NewGraph[I, O]()

	// 添加节点
	graph.AddLambdaNode("load", compose.InvokableLambdaWithOption(loadMsg))
	graph.AddLambdaNode("agent", compose.InvokableLambdaWithOption(p.invokeModel))
	graph.AddLambdaNode("router", compose.InvokableLambdaWithOption(router))

	// 构造关联
	graph.AddEdge(compose.START, "load")
	graph.AddEdge("load", "agent")
	graph.AddEdge("agent", "router")
	graph.AddEdge("router", compose.END)

	return consts.Planner, graph, compose.WithNodeName(consts.Planner)
}

// loadMsg Planner的load节点处理函数，加载计划生成的提示词模板并注入问题
func loadMsg(ctx context.Context, name string, opts ...any) (output []*schema.Message, err error) {
	err = compose.ProcessState[*model.State](ctx, func(ctx context.Context, state *model.State) error {
		// 加载模板
		sysPrompt, err := template.GetPromptTemplate(ctx, name)
		if err != nil {
			slog.Error("loadMsg failed, GetPromptTemplate err = %+v", err)
			return err
		}

		promptTemp := prompt.FromMessages(schema.Jinja2,
			schema.SystemMessage(sysPrompt),
			schema.MessagesPlaceholder("user_input", true),
		)

		variables := map[string]any{
			"CURRENT_TIME": time.Now().Format("2006-01-02 15:04:05"),
			"user_input":   []*schema.Message{schema.UserMessage(state.Question)},
		}
		output, err = promptTemp.Format(ctx, variables)
		return err
	})
	return output, err
}

// invokeModel 带超时的模型调用
func (p *plannerImpl[I, O]) invokeModel(ctx context.Context, input []*schema.Message, opts ...any) (*schema.Message, error) {
	tctx, cancel := context.WithTimeout(ctx, comm.StageTimeout())
	defer cancel()

	out, err := p.llm.Generate(tctx, input)
	if err != nil {
		return nil, qaerr.WrapModelErr(consts.Planner, err)
	}
	return out, nil
}

// router 解析计划并写入状态。计划结构不合法必须失败上抛，
// 损坏的计划会使检索覆盖失效，不允许静默吞掉
func router(ctx context.Context, input *schema.Message, opts ...any) (output string, err error) {
	plan, perr := parsePlan(input.Content)
	if perr != nil {
		slog.Error("planner router failed, parse plan err = %+v, content = %+v", perr, input.Content)
		return "", perr
	}

	err = compose.ProcessState[*model.State](ctx, func(_ context.Context, state *model.State) error {
		defer func() {
			output = state.Goto
		}()

		state.Plan = plan.Plan
		state.SubQuestions = plan.SubQuestions
		state.Goto = consts.Retriever
		return nil
	})
	return output, err
}

// parsePlan 把模型输出解析为结构化计划。
// 允许 markdown 代码块包裹，除此之外任何多余文本、缺字段或空子问题都视为格式错误
func parsePlan(content string) (*model.Plan, error) {
	raw := stripFences(content)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty planner response", qaerr.ErrMalformedAgentOutput)
	}

	var plan model.Plan
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&plan); err != nil {
		return nil, fmt.Errorf("%w: %v", qaerr.ErrMalformedAgentOutput, err)
	}
	// JSON 对象后不允许再有内容
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing content after plan object", qaerr.ErrMalformedAgentOutput)
	}

	if strings.TrimSpace(plan.Plan) == "" {
		return nil, fmt.Errorf("%w: empty plan field", qaerr.ErrMalformedAgentOutput)
	}
	if len(plan.SubQuestions) == 0 {
		return nil, fmt.Errorf("%w: no sub_questions", qaerr.ErrMalformedAgentOutput)
	}
	for i, sq := range plan.SubQuestions {
		trimmed := strings.TrimSpace(sq)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: blank sub_question at index %d", qaerr.ErrMalformedAgentOutput, i)
		}
		plan.SubQuestions[i] = trimmed
	}
	return &plan, nil
}

// stripFences 去掉模型输出外层的 markdown 代码块标记
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
