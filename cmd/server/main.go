package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/catalog"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/config"
	labhttp "github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/interfaces/http"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/job"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/ledger"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/receipt"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/service"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/internal/storage"
	"github.com/jamsbach/SFL-3D-Printer-Receipt-System/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting fabrication lab job ledger",
		zap.Int("port", cfg.Server.Port),
		zap.String("catalog", cfg.Catalog.Path))

	// The process must not start without a valid catalog: there is no
	// safe default cost table.
	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("Failed to load machine catalog", zap.Error(err))
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Ledger.Path), 0755); err != nil {
		logger.Fatal("Failed to create ledger directory", zap.Error(err))
	}
	led := ledger.New(cfg.Ledger.Path, logger)

	uploads, err := storage.NewUploadStore(cfg.Uploads.Dir, logger)
	if err != nil {
		logger.Fatal("Failed to initialize upload store", zap.Error(err))
	}

	var sink receipt.Sink = receipt.NullSink{}
	if cfg.Printer.Port != "" {
		sink = receipt.NewSerialSink(cfg.Printer.Port, cfg.Printer.BaudRate, logger)
		logger.Info("Receipt printer configured",
			zap.String("port", cfg.Printer.Port),
			zap.Int("baud_rate", cfg.Printer.BaudRate))
	} else {
		logger.Warn("No receipt printer configured, receipts will be skipped")
	}

	jobs := service.NewJobService(cat, cfg.Catalog.Path, job.NewBuilder(), led, sink, logger)

	srv := labhttp.NewServer(labhttp.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		AdminSecret:  cfg.Admin.Secret,
	}, jobs, uploads, cat, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Server.OpenBrowser {
		go func() {
			time.Sleep(time.Second)
			url := fmt.Sprintf("http://%s/", srv.Address())
			if err := openBrowser(url); err != nil {
				logger.Warn("Could not open browser", zap.String("url", url), zap.Error(err))
			}
		}()
	}

	if err := srv.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited")
}

// openBrowser points the local browser at the submission form.
func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
