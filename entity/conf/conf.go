package conf

import (
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/HildaM/logs/slog"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	// 全局 koanf 实例，使用 "." 作为键路径分隔符
	k = koanf.New(".")
	// 配置读写锁，确保并发安全
	configMu sync.RWMutex
	// 文件提供者
	f *file.File
	// 缓存的配置实例
	appConf *AppConfig
)

// Init 初始化配置
func Init() error {
	// 加载配置
	if err := loadConfig(); err != nil {
		return fmt.Errorf("Init config failed, load config err: %v", err)
	}

	// 启动配置文件监听
	startConfigWatch()

	// 初始化日志
	if err := slog.InitFile("logs/app.log", slog.WithLevel("debug"), slog.WithColor(false)); err != nil {
		return fmt.Errorf("Init log failed, err: %+v", err)
	}

	slog.Info("Init config: %+v", GetCfg())
	return nil
}

// loadConfig 加载配置
func loadConfig() error {
	configMu.Lock()
	defer configMu.Unlock()

	// 创建文件提供者
	f = file.Provider("config.yaml")

	// 从根目录加载配置文件
	if err := k.Load(f, yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load config file: %w", err)
	}

	// 解析配置到结构体，使用 yaml 标签
	var config AppConfig
	if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 补全缺省值后更新全局配置实例
	normalize(&config)
	appConf = &config
	return nil
}

// normalize 补全配置缺省值，API密钥与DSN允许通过环境变量注入
func normalize(c *AppConfig) {
	if c.Model.DefaultModel.APIKey == "" {
		c.Model.DefaultModel.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Embedding.APIKey == "" {
		c.Embedding.APIKey = c.Model.DefaultModel.APIKey
	}
	if c.Embedding.ModelID == "" {
		c.Embedding.ModelID = "text-embedding-3-small"
	}
	if c.Embedding.Dimension == 0 {
		c.Embedding.Dimension = 1536
	}
	if c.Vector.DSN == "" {
		c.Vector.DSN = os.Getenv("DATABASE_URL")
	}
	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 5
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Ingest.ChunkSize == 0 {
		c.Ingest.ChunkSize = 500
	}
	if c.Ingest.ChunkOverlap == 0 {
		c.Ingest.ChunkOverlap = 100
	}
	if c.Ingest.Concurrency == 0 {
		c.Ingest.Concurrency = 4
	}
	if c.Setting.StageTimeoutSec == 0 {
		c.Setting.StageTimeoutSec = 60
	}
	if c.Setting.AgentMaxStep == 0 {
		c.Setting.AgentMaxStep = 12
	}
	if c.Setting.MaxLimitToken == 0 {
		c.Setting.MaxLimitToken = 60000
	}
}

// GetCfg 获取配置。热加载会并发替换实例，读取必须持读锁
func GetCfg() *AppConfig {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConf
}

// SetCfgForTest 测试专用，直接注入配置实例
func SetCfgForTest(c *AppConfig) {
	normalize(c)
	configMu.Lock()
	defer configMu.Unlock()
	appConf = c
}

// startConfigWatch 启动配置文件监听
func startConfigWatch() {
	if f == nil {
		log.Printf("file provider not initialized")
		return
	}

	// 监听文件变化并在变化时重新加载配置
	f.Watch(func(event interface{}, err error) {
		if err != nil {
			log.Printf("Config file watch error: %v", err)
			return
		}

		// 配置文件发生变化，重新加载
		log.Printf("Config file changed. Reloading...")

		configMu.Lock()

		k = koanf.New(".")
		if err := k.Load(f, yaml.Parser()); err != nil {
			log.Printf("Failed to load reloaded config: %v", err)
			configMu.Unlock()
			return
		}

		var config AppConfig
		if err := k.UnmarshalWithConf("", &config, koanf.UnmarshalConf{Tag: "yaml"}); err != nil {
			log.Printf("Failed to unmarshal reloaded config: %v", err)
			configMu.Unlock()
			return
		}

		normalize(&config)
		appConf = &config

		configMu.Unlock()

		log.Printf("Config reloaded: %+v", config)
	})
}
