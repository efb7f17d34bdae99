package model

// Passage 向量索引返回的一个文档段落。检索后不可变，
// 除了在单次检索结果里的位置外没有其他标识
type Passage struct {
	Content string `json:"content"` // 段落正文
	Page    string `json:"page"`    // 页码或章节标识，缺失时为空串，序列化时显示为 unknown
}

// QAResult 流水线终态对外暴露的字段集合
type QAResult struct {
	Answer       string   `json:"answer"`
	Plan         string   `json:"plan,omitempty"`
	SubQuestions []string `json:"sub_questions,omitempty"`
	Context      string   `json:"context"`
}
