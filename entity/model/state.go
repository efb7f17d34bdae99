package model

// State QA流水线的单次请求状态，通过 eino 图的 local state 在各阶段间传递。
// 约束：每个字段只由其所属阶段写入一次，后续阶段只读，不允许回写
type State struct {
	// 调用方输入，整个运行期间不可变
	Question       string `json:"question"`
	EnablePlanning bool   `json:"enable_planning"`

	// Planner 产出；规划关闭时保持零值
	Plan         string   `json:"plan,omitempty"`
	SubQuestions []string `json:"sub_questions,omitempty"`

	// Retriever 产出。nil 表示检索尚未执行；空字符串表示检索执行了但没有命中，
	// 两者必须区分（空上下文是合法的成功结果）
	Context *string `json:"context,omitempty"`

	// Retriever 内部累计的原始段落，按工具调用顺序排列，最终一次性序列化进 Context
	Retrieved []Passage `json:"retrieved,omitempty"`

	// Summarizer 产出，仅允许基于 Context 生成
	DraftAnswer string `json:"draft_answer,omitempty"`

	// Verifier 产出，对外暴露的唯一最终答案字段
	Answer string `json:"answer,omitempty"`

	// 子图共享路由变量，指向下一个阶段节点
	Goto string `json:"goto,omitempty"`
}

// Plan Planner 的结构化输出，模型必须恰好返回这两个字段
type Plan struct {
	Plan         string   `json:"plan"`          // 自然语言的检索与推理策略
	SubQuestions []string `json:"sub_questions"` // 可独立检索的子问题，至少一个
}
