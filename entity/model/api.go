package model

// QARequest /qa 接口请求体
type QARequest struct {
	Question    string `json:"question"`     // 用户关于文档库的自然语言问题，不能为空
	UsePlanning *bool  `json:"use_planning"` // 是否启用规划阶段，缺省为 true
}

// PlanningEnabled 返回规划开关，字段缺省时默认开启
func (r *QARequest) PlanningEnabled() bool {
	if r.UsePlanning == nil {
		return true
	}
	return *r.UsePlanning
}

// QAResponse /qa 接口响应体。对外只暴露最终答案与检索元信息，草稿答案留在流水线内部
type QAResponse struct {
	Answer       string   `json:"answer"`
	Plan         string   `json:"plan,omitempty"`
	SubQuestions []string `json:"sub_questions,omitempty"`
	Context      string   `json:"context"`
	Degraded     bool     `json:"degraded,omitempty"` // 凭证缺失导致的降级响应标记
}

// ErrorResponse 统一错误响应体
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// IndexPDFResponse /index-pdf 接口响应体
type IndexPDFResponse struct {
	Filename      string `json:"filename"`
	ChunksIndexed int    `json:"chunks_indexed"`
}
