package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"youku-danmu-go/backend"
	"youku-danmu-go/config"
	"youku-danmu-go/crawler/youku"
	"youku-danmu-go/database"
	"youku-danmu-go/logger"
	"youku-danmu-go/utils"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var servePort int

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "监听端口（默认取配置）")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP API 服务",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		log := logger.GetLogger()

		if err := database.InitDB(cfg.DatabasePath); err != nil {
			return fmt.Errorf("初始化数据库失败: %w", err)
		}
		defer database.CloseDB()

		m := backend.NewManagerFromConfig(cfg)
		defer m.Close()

		port := cfg.DefaultPort
		if servePort > 0 {
			port = servePort
		}
		server := &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      newRouter(m),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Minute,
			IdleTimeout:  60 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Infof("Starting server on port %d", port)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("启动服务失败: %w", err)
			}
			return nil
		case <-cmd.Context().Done():
		}

		log.Info("收到退出信号，正在优雅关闭服务器...")
		ctxTimeout, cancelTimeout := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelTimeout()
		if err := server.Shutdown(ctxTimeout); err != nil {
			return fmt.Errorf("优雅关闭服务器失败: %w", err)
		}
		log.Info("服务器已优雅退出")
		return nil
	},
}

type apiHandler struct {
	manager *backend.Manager
}

func newRouter(m *backend.Manager) *gin.Engine {
	h := &apiHandler{manager: m}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	api := router.Group("/api")
	{
		api.GET("/urls", h.getSupportedURLs)
		api.GET("/search", h.search)
		api.GET("/urlinfo", h.urlInfo)
		api.POST("/download", h.download)
		api.POST("/download/source", h.downloadBySource)
		api.GET("/videos", h.getVideos)
		api.GET("/video/:vid", h.getVideoDetails)
		api.GET("/danmu/:vid", h.getDanmu)
	}

	router.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

// requestLogger 用全局 logrus 记录请求，替代 gin 自带的日志
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.GetLogger().WithFields(map[string]interface{}{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("HTTP 请求")
	}
}

func (h *apiHandler) getSupportedURLs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"urls": youku.SupportedURLs()})
}

func (h *apiHandler) search(c *gin.Context) {
	keyword := c.Query("keyword")
	if keyword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing keyword parameter"})
		return
	}

	res := h.manager.Provider().Search(c.Request.Context(), keyword)
	if res.Error {
		c.JSON(http.StatusBadGateway, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *apiHandler) urlInfo(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url parameter"})
		return
	}

	res := h.manager.Provider().GetURLInfo(rawURL)
	if res == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported url", "url": rawURL})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *apiHandler) download(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url parameter"})
		return
	}
	if !youku.MatchURL(rawURL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported url", "url": rawURL})
		return
	}
	h.runDownload(c, rawURL, func(ctx context.Context) (*backend.DownloadReport, error) {
		return h.manager.DownloadAndImport(ctx, rawURL)
	})
}

func (h *apiHandler) downloadBySource(c *gin.Context) {
	descriptor := c.Query("descriptor")
	if _, _, err := youku.ParseDescriptor(descriptor); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.runDownload(c, descriptor, func(ctx context.Context) (*backend.DownloadReport, error) {
		return h.manager.ImportBySource(ctx, descriptor)
	})
}

// runDownload 默认后台执行并立即返回 202；wait=true 时同步执行并返回结果
func (h *apiHandler) runDownload(c *gin.Context, target string, fn func(ctx context.Context) (*backend.DownloadReport, error)) {
	log := logger.GetLogger()
	log.Infof("收到下载请求: %s", target)

	if c.Query("wait") == "true" {
		report, err := fn(c.Request.Context())
		if err != nil {
			respondCrawlerError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("[panic] download goroutine: %v\n%s", r, string(debug.Stack()))
			}
		}()
		if report, err := fn(context.Background()); err != nil {
			log.Errorf("%s 下载失败: %v", target, err)
		} else {
			log.Infof("%s 下载完成: %d 条弹幕", target, report.DanmuCount)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"status":  "started",
		"message": "Download started for " + target,
	})
}

func respondCrawlerError(c *gin.Context, err error) {
	var ce *backend.CrawlerError
	if !errors.As(err, &ce) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch ce.Type {
	case backend.ErrorTypeUserInput:
		status = http.StatusBadRequest
	case backend.ErrorTypeNetworkError, backend.ErrorTypeDecodeError:
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{
		"error":     ce.Message,
		"type":      ce.Type,
		"type_name": backend.GetErrorTypeName(ce.Type),
		"level":     ce.Level,
	})
}

func (h *apiHandler) getVideos(c *gin.Context) {
	page := utils.StringToIntOr(c.DefaultQuery("page", "1"), 1)
	pageSize := utils.StringToIntOr(c.DefaultQuery("pageSize", "10"), 10)
	searchTerm := c.DefaultQuery("search", "")

	videos, total, err := database.GetVideosPaginated(page, pageSize, searchTerm)
	if err != nil {
		logger.GetLogger().Errorf("查询视频列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get videos"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"videos":    videos,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func (h *apiHandler) getVideoDetails(c *gin.Context) {
	video, err := database.GetVideoByVid(c.Param("vid"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get video details"})
		return
	}
	if video == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
		return
	}
	c.JSON(http.StatusOK, video)
}

func (h *apiHandler) getDanmu(c *gin.Context) {
	vid := c.Param("vid")
	page := utils.StringToIntOr(c.DefaultQuery("page", "1"), 1)
	pageSize := utils.StringToIntOr(c.DefaultQuery("pageSize", "50"), 50)
	keyword := c.DefaultQuery("keyword", "")

	list, total, err := database.GetDanmuByVid(vid, page, pageSize, keyword)
	if err != nil {
		logger.GetLogger().Errorf("查询弹幕失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get danmu"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"danmu":    list,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}
