package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/HildaM/logs/slog"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/route"
	"github.com/hildam/paper-qa-go/entity/model"
	"github.com/hildam/paper-qa-go/entity/qaerr"
)

// Answerer 问答能力接口，由 service.Pipeline 实现
type Answerer interface {
	Answer(ctx context.Context, question string, usePlanning bool) (*model.QAResult, error)
}

// Indexer 文档入库能力接口
type Indexer interface {
	IndexPDF(ctx context.Context, data []byte, filename string) (int, error)
}

// Run 启动 HTTP 服务，阻塞直到进程退出
func Run(addr string, qa Answerer, ix Indexer) {
	h := server.Default(server.WithHostPorts(addr))
	registerRoutes(h.Engine, qa, ix)

	slog.Info("http server listening on %s", addr)
	h.Spin()
}

// registerRoutes 注册全部路由，Run 与测试共用
func registerRoutes(r *route.Engine, qa Answerer, ix Indexer) {
	r.POST("/qa", handleQA(qa))
	r.POST("/index-pdf", handleIndexPDF(ix))
}

// handleQA 处理一次问答请求
func handleQA(qa Answerer) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		var req model.QARequest
		if err := c.BindAndValidate(&req); err != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Detail: "invalid request body: " + err.Error()})
			return
		}

		result, err := qa.Answer(ctx, req.Question, req.PlanningEnabled())
		if err != nil {
			if errors.Is(err, qaerr.ErrEmptyInput) {
				c.JSON(http.StatusBadRequest, model.ErrorResponse{Detail: qaerr.ErrEmptyInput.Error()})
				return
			}
			// 凭证类模型故障降级为可读答复，不算请求失败
			if errors.Is(err, qaerr.ErrModelUnavailable) && qaerr.IsAuthErr(err) {
				slog.Error("qa degraded, model credentials rejected, err = %v", err)
				c.JSON(http.StatusOK, model.QAResponse{
					Answer:   "The language model is not available. Please check the API credentials and try again.",
					Degraded: true,
				})
				return
			}
			c.JSON(statusForErr(err), model.ErrorResponse{Detail: err.Error()})
			return
		}

		c.JSON(http.StatusOK, model.QAResponse{
			Answer:       result.Answer,
			Plan:         result.Plan,
			SubQuestions: result.SubQuestions,
			Context:      result.Context,
		})
	}
}

// handleIndexPDF 处理一次 PDF 入库请求，multipart 字段名为 file
func handleIndexPDF(ix Indexer) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Detail: "missing multipart field 'file'"})
			return
		}
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Detail: "only PDF files are supported"})
			return
		}

		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Detail: "cannot open upload: " + err.Error()})
			return
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Detail: "cannot read upload: " + err.Error()})
			return
		}

		count, err := ix.IndexPDF(ctx, data, fh.Filename)
		if err != nil {
			slog.Error("index pdf failed, filename = %s, err = %v", fh.Filename, err)
			c.JSON(statusForErr(err), model.ErrorResponse{Detail: err.Error()})
			return
		}

		c.JSON(http.StatusOK, model.IndexPDFResponse{
			Filename:      fh.Filename,
			ChunksIndexed: count,
		})
	}
}

// statusForErr 错误种类到 HTTP 状态码的映射
func statusForErr(err error) int {
	switch {
	case errors.Is(err, qaerr.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, qaerr.ErrRetrievalUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, qaerr.ErrStageTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, qaerr.ErrMalformedAgentOutput), errors.Is(err, qaerr.ErrModelUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
