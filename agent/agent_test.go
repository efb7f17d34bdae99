package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/go-cmp/cmp"
	"github.com/hildam/paper-qa-go/entity/consts"
	"github.com/hildam/paper-qa-go/entity/model"
	"github.com/hildam/paper-qa-go/entity/qaerr"
)

// scriptedModel 按调用顺序返回预设消息，供各阶段模型复用
type scriptedModel struct {
	mu     sync.Mutex
	calls  int
	script []*schema.Message
	err    error
}

func (m *scriptedModel) next() (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.calls >= len(m.script) {
		return nil, fmt.Errorf("unexpected model call %d", m.calls+1)
	}
	msg := m.script[m.calls]
	m.calls++
	return msg, nil
}

func (m *scriptedModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *scriptedModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	return m.next()
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.next()
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (m *scriptedModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return m, nil
}

// fakeIndex 模拟向量索引检索器
type fakeIndex struct {
	mu       sync.Mutex
	queries  []string
	passages []model.Passage
	err      error
}

func (f *fakeIndex) Search(ctx context.Context, query string, k int) ([]model.Passage, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.passages, nil
}

func assistantMsg(content string) *schema.Message {
	return &schema.Message{Role: schema.Assistant, Content: content}
}

func toolCallMsg(query string) *schema.Message {
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{{
			ID: "call-1",
			Function: schema.FunctionCall{
				Name:      consts.RetrievalToolName,
				Arguments: fmt.Sprintf(`{"query": %q}`, query),
			},
		}},
	}
}

func TestPipeline_PlanningEnabled(t *testing.T) {
	ctx := context.Background()

	planModel := &scriptedModel{script: []*schema.Message{
		assistantMsg(`{"plan": "Look up the similarity metric used for retrieval.", "sub_questions": ["What similarity metric does the retriever use?"]}`),
	}}
	chatModel := &scriptedModel{script: []*schema.Message{
		toolCallMsg("similarity metric retriever"),
		assistantMsg("DONE"),
		assistantMsg("The retriever ranks chunks by cosine similarity."),
		assistantMsg("The retriever ranks chunks by cosine similarity between embeddings."),
	}}
	index := &fakeIndex{passages: []model.Passage{
		{Content: "Retrieval ranks stored chunks by cosine similarity of their embeddings.", Page: "3"},
	}}

	runnable, err := BuildQAGraph(ctx, Deps{ChatModel: chatModel, PlanModel: planModel, Retriever: index}, "Which similarity metric does the system use?", true)
	if err != nil {
		t.Fatalf("BuildQAGraph: %v", err)
	}

	result, err := runnable.Invoke(ctx, consts.Intake)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if want := "The retriever ranks chunks by cosine similarity between embeddings."; result.Answer != want {
		t.Errorf("answer = %q, want %q", result.Answer, want)
	}
	if result.Plan == "" {
		t.Error("plan missing from result")
	}
	if diff := cmp.Diff([]string{"What similarity metric does the retriever use?"}, result.SubQuestions); diff != "" {
		t.Errorf("sub-questions mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(result.Context, "Chunk 1 (page=3):") {
		t.Errorf("context = %q, want Chunk 1 (page=3) prefix", result.Context)
	}
	if !strings.Contains(result.Context, "cosine similarity") {
		t.Errorf("context %q does not carry the retrieved passage", result.Context)
	}
	if diff := cmp.Diff([]string{"similarity metric retriever"}, index.queries); diff != "" {
		t.Errorf("index queries mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_PlanningDisabled(t *testing.T) {
	ctx := context.Background()

	planModel := &scriptedModel{err: errors.New("planner must not run")}
	chatModel := &scriptedModel{script: []*schema.Message{
		toolCallMsg("chunk overlap"),
		assistantMsg("DONE"),
		assistantMsg("Chunks overlap by a fixed number of characters."),
		assistantMsg("Chunks overlap by a fixed number of characters."),
	}}
	index := &fakeIndex{passages: []model.Passage{
		{Content: "Consecutive chunks share an overlap region.", Page: "7"},
	}}

	runnable, err := BuildQAGraph(ctx, Deps{ChatModel: chatModel, PlanModel: planModel, Retriever: index}, "How do chunks overlap?", false)
	if err != nil {
		t.Fatalf("BuildQAGraph: %v", err)
	}

	result, err := runnable.Invoke(ctx, consts.Intake)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if planModel.callCount() != 0 {
		t.Errorf("plan model called %d times with planning disabled", planModel.callCount())
	}
	if result.Plan != "" || len(result.SubQuestions) != 0 {
		t.Errorf("plan fields set with planning disabled: plan=%q subQuestions=%v", result.Plan, result.SubQuestions)
	}
	if !strings.Contains(result.Context, "overlap region") {
		t.Errorf("context %q does not carry the retrieved passage", result.Context)
	}
	if result.Answer == "" {
		t.Error("answer missing from result")
	}
}

func TestPipeline_NoRelevantChunks(t *testing.T) {
	ctx := context.Background()

	chatModel := &scriptedModel{script: []*schema.Message{
		toolCallMsg("unrelated topic"),
		assistantMsg("DONE"),
		assistantMsg("The provided context does not contain this information."),
		assistantMsg("The provided context does not contain this information."),
	}}
	index := &fakeIndex{} // 零命中

	runnable, err := BuildQAGraph(ctx, Deps{ChatModel: chatModel, PlanModel: &scriptedModel{}, Retriever: index}, "Something out of corpus?", false)
	if err != nil {
		t.Fatalf("BuildQAGraph: %v", err)
	}

	result, err := runnable.Invoke(ctx, consts.Intake)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	// 零命中是合法结果，流水线继续执行，上下文为空字符串
	if result.Context != "" {
		t.Errorf("context = %q, want empty", result.Context)
	}
	if result.Answer == "" {
		t.Error("answer missing from result")
	}
}

func TestPipeline_IndexUnavailable(t *testing.T) {
	ctx := context.Background()

	chatModel := &scriptedModel{script: []*schema.Message{
		toolCallMsg("anything"),
	}}
	index := &fakeIndex{err: errors.New("connection refused")}

	runnable, err := BuildQAGraph(ctx, Deps{ChatModel: chatModel, PlanModel: &scriptedModel{}, Retriever: index}, "Does this survive an index outage?", false)
	if err != nil {
		t.Fatalf("BuildQAGraph: %v", err)
	}

	_, err = runnable.Invoke(ctx, consts.Intake)
	if !errors.Is(err, qaerr.ErrRetrievalUnavailable) {
		t.Fatalf("err = %v, want ErrRetrievalUnavailable", err)
	}
}

func TestPipeline_MalformedPlan(t *testing.T) {
	ctx := context.Background()

	planModel := &scriptedModel{script: []*schema.Message{
		assistantMsg("Sure! Here is my plan: first I will search the index."),
	}}

	runnable, err := BuildQAGraph(ctx, Deps{ChatModel: &scriptedModel{}, PlanModel: planModel, Retriever: &fakeIndex{}}, "Will a prose plan abort the run?", true)
	if err != nil {
		t.Fatalf("BuildQAGraph: %v", err)
	}

	_, err = runnable.Invoke(ctx, consts.Intake)
	if !errors.Is(err, qaerr.ErrMalformedAgentOutput) {
		t.Fatalf("err = %v, want ErrMalformedAgentOutput", err)
	}
}

func TestPipeline_EmptyQuestion(t *testing.T) {
	ctx := context.Background()

	runnable, err := BuildQAGraph(ctx, Deps{ChatModel: &scriptedModel{}, PlanModel: &scriptedModel{}, Retriever: &fakeIndex{}}, "   ", true)
	if err != nil {
		t.Fatalf("BuildQAGraph: %v", err)
	}

	_, err = runnable.Invoke(ctx, consts.Intake)
	if !errors.Is(err, qaerr.ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
}
