package consts

const (
	GraphName = "paper_qa_graph" // QA流水线图名称
)

// 流水线阶段名字，同时作为图节点 key 与提示词模板 key
const (
	Intake     = "intake"     // 入口校验，决定是否走规划阶段
	Planner    = "planner"    // 规划者，将问题拆解为检索子问题
	Retriever  = "retriever"  // 检索协调者，唯一可调用向量检索工具的阶段
	Summarizer = "summarizer" // 总结者，仅基于检索上下文生成草稿答案
	Verifier   = "verifier"   // 校验者，逐条核对草稿并输出最终答案
	Finalize   = "finalize"   // 汇总节点，从状态中提取对外结果
)

// RetrievalToolName 检索工具名称，Retriever 阶段唯一可用的工具
const RetrievalToolName = "retrieve_chunks"
