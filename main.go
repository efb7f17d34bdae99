package main

import (
	"context"
	"fmt"
	"os"

	"github.com/HildaM/logs/slog"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hildam/paper-qa-go/agent"
	"github.com/hildam/paper-qa-go/entity/conf"
	"github.com/hildam/paper-qa-go/repo/embedding"
	"github.com/hildam/paper-qa-go/repo/ingest"
	"github.com/hildam/paper-qa-go/repo/llm"
	"github.com/hildam/paper-qa-go/repo/metrics"
	"github.com/hildam/paper-qa-go/repo/retriever"
	"github.com/hildam/paper-qa-go/repo/vectorstore"
	"github.com/hildam/paper-qa-go/server"
	"github.com/hildam/paper-qa-go/service"
)

var rootCmd = &cobra.Command{
	Use:   "paper-qa",
	Short: "Multi-agent question answering over an indexed document corpus",
	Long: "paper-qa answers natural-language questions about indexed PDF documents\n" +
		"through a plan, retrieve, summarize, verify pipeline backed by a pgvector index.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP question answering service",
	RunE:  runServe,
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a single question from the command line",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

var indexCmd = &cobra.Command{
	Use:   "index <file.pdf>",
	Short: "Chunk, embed and index a PDF into the vector store",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndex,
}

var noPlanning bool

func init() {
	askCmd.Flags().BoolVar(&noPlanning, "no-planning", false, "skip the planning stage")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(indexCmd)
}

func main() {
	// .env 缺失时静默忽略，环境变量可由外部注入
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup 初始化配置并装配全部依赖
func setup(ctx context.Context) (*service.Pipeline, *ingest.Indexer, func(), error) {
	if err := conf.Init(); err != nil {
		return nil, nil, nil, fmt.Errorf("init config: %w", err)
	}
	cfg := conf.GetCfg()

	store, err := vectorstore.New(ctx, cfg.Vector.DSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect vector store: %w", err)
	}
	if err := store.EnsureSchema(ctx, cfg.Embedding.Dimension); err != nil {
		store.Close()
		return nil, nil, nil, fmt.Errorf("ensure schema: %w", err)
	}

	emb := embedding.NewClient(cfg.Embedding)

	deps := agent.Deps{
		ChatModel: llm.NewChatModel(ctx),
		PlanModel: llm.NewPlanModel(ctx),
		Retriever: retriever.New(emb, store),
	}

	return service.New(deps), ingest.NewIndexer(emb, store, cfg.Ingest), store.Close, nil
}

// runServe 启动 HTTP 服务与指标端口
func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	pipeline, indexer, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	metrics.Serve(conf.GetCfg().Server.MetricsAddr)
	server.Run(conf.GetCfg().Server.Addr, pipeline, indexer)
	return nil
}

// runAsk 单次问答，结果输出到终端
func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	pipeline, _, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := pipeline.Answer(ctx, args[0], !noPlanning)
	if err != nil {
		return err
	}

	if result.Plan != "" {
		fmt.Printf("Plan: %s\n", result.Plan)
		for _, sq := range result.SubQuestions {
			fmt.Printf("  - %s\n", sq)
		}
		fmt.Println()
	}
	fmt.Println(result.Answer)
	return nil
}

// runIndex 将一个 PDF 文件入库
func runIndex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	_, indexer, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read pdf: %w", err)
	}

	count, err := indexer.IndexPDF(ctx, data, args[0])
	if err != nil {
		return err
	}

	slog.Info("indexed %s, chunks = %d", args[0], count)
	fmt.Printf("indexed %d chunks from %s\n", count, args[0])
	return nil
}
