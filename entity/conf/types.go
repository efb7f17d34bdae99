package conf

// Model 单个模型配置
type Model struct {
	ModelID string `yaml:"model_id" mapstructure:"model_id"` // 模型ID
	BaseURL string `yaml:"base_url" mapstructure:"base_url"` // 模型服务的基础URL地址
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`   // 模型服务的API密钥，缺省时回退到环境变量
}

// ModelConfig 模型配置
type ModelConfig struct {
	DefaultModel Model `yaml:"default_model" mapstructure:"default_model"` // 四个阶段共用的对话模型
}

// EmbeddingConfig 向量化模型配置，走 openai 兼容的 /embeddings 接口
type EmbeddingConfig struct {
	ModelID   string `yaml:"model_id" mapstructure:"model_id"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`
	Dimension int    `yaml:"dimension" mapstructure:"dimension"` // 向量维度，须与索引表定义一致
}

// VectorConfig 向量索引（Postgres + pgvector）配置
type VectorConfig struct {
	DSN string `yaml:"dsn" mapstructure:"dsn"` // Postgres 连接串，缺省回退 DATABASE_URL
}

// RetrievalConfig 检索配置
type RetrievalConfig struct {
	TopK int `yaml:"top_k" mapstructure:"top_k"` // 单次检索返回段落数，唯一权威取值
}

// ServerConfig HTTP服务配置
type ServerConfig struct {
	Addr        string `yaml:"addr" mapstructure:"addr"`                 // QA服务监听地址
	MetricsAddr string `yaml:"metrics_addr" mapstructure:"metrics_addr"` // prometheus指标监听地址，空则不启动
}

// IngestConfig 文档摄取配置
type IngestConfig struct {
	ChunkSize    int `yaml:"chunk_size" mapstructure:"chunk_size"`       // 分块长度（字符）
	ChunkOverlap int `yaml:"chunk_overlap" mapstructure:"chunk_overlap"` // 相邻分块重叠长度
	Concurrency  int `yaml:"concurrency" mapstructure:"concurrency"`     // 向量化并发上限
}

// SettingConfig 应用运行配置
type SettingConfig struct {
	StageTimeoutSec int `yaml:"stage_timeout_sec" mapstructure:"stage_timeout_sec"` // 单阶段外部调用超时
	AgentMaxStep    int `yaml:"agent_max_step" mapstructure:"agent_max_step"`       // 检索 agent 最大执行步骤数
	MaxLimitToken   int `yaml:"max_limit_token" mapstructure:"max_limit_token"`     // 最大限制token数
}

// AppConfig 应用配置
type AppConfig struct {
	Model     ModelConfig     `yaml:"model" mapstructure:"model"`
	Embedding EmbeddingConfig `yaml:"embedding" mapstructure:"embedding"`
	Vector    VectorConfig    `yaml:"vector" mapstructure:"vector"`
	Retrieval RetrievalConfig `yaml:"retrieval" mapstructure:"retrieval"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Setting   SettingConfig   `yaml:"setting" mapstructure:"setting"`
}
