package main

import (
	"context"
	"fmt"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BallDevTools/telegram-bot/internal/app"
	"github.com/BallDevTools/telegram-bot/internal/config"
	"github.com/BallDevTools/telegram-bot/internal/logger"
	"github.com/BallDevTools/telegram-bot/internal/tui"
	"github.com/BallDevTools/telegram-bot/pkg/tracing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"
	"github.com/charmbracelet/wish/logging"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	gossh "golang.org/x/crypto/ssh"
)

var (
	loadEnvFunc            = godotenv.Load
	initLoggerFunc         = logger.Init
	loadConfigFunc         = config.Load
	initTracerFunc         = tracing.InitTracer
	newAnalysisServiceFunc = app.NewAnalysisService
	newWishServerFunc      = wish.NewServer
	setupSignalNotify      = ossignal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
)

func main() {
	loadEnvFunc()

	syncLogger := initLoggerFunc(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	defer syncLogger()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		zap.S().Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			zap.S().Errorf("error shutting down tracer provider: %v", err)
		}
	}()

	svc, closeStores := newAnalysisServiceFunc(ctx, cfg, tracer)
	defer closeStores()

	refreshEvery := time.Duration(cfg.AnalysisPollSecs) * time.Second
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.SSHPort)

	srv, err := newWishServerFunc(
		wish.WithAddress(addr),
		wish.WithHostKeyPath(cfg.SSHHostKeyPath),
		wish.WithPublicKeyAuth(authorizeKeys(cfg.SSHAuthorizedFingerprints)),
		wish.WithMiddleware(
			bubbletea.Middleware(func(s ssh.Session) (tea.Model, []tea.ProgramOption) {
				model := tui.NewModel(svc, s.User(), refreshEvery)
				pty, _, _ := s.Pty()
				model.SetSize(pty.Window.Width, pty.Window.Height)
				return model, []tea.ProgramOption{tea.WithAltScreen()}
			}),
			logging.Middleware(),
		),
	)
	if err != nil {
		zap.S().Fatalf("failed to create SSH server: %v", err)
	}

	if srv != nil {
		go func() {
			zap.S().Infof("SSH server listening on %s", addr)
			if err := srv.ListenAndServe(); err != nil {
				zap.S().Infof("SSH server stopped: %v", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	zap.S().Info("Shutting down SSH server...")

	cancel()

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.S().Errorf("SSH server shutdown error: %v", err)
		}
	}

	zap.S().Info("SSH server exited")
}

// authorizeKeys accepts keys whose SHA256 fingerprint is in allowed. An empty
// allowlist accepts any key.
func authorizeKeys(allowed []string) func(ssh.Context, ssh.PublicKey) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, fp := range allowed {
		set[strings.TrimSpace(fp)] = struct{}{}
	}

	return func(_ ssh.Context, key ssh.PublicKey) bool {
		fingerprint := gossh.FingerprintSHA256(key)
		if len(set) == 0 {
			return true
		}
		if _, ok := set[fingerprint]; !ok {
			zap.S().Warnf("SSH auth denied: fingerprint=%s", fingerprint)
			return false
		}
		zap.S().Infof("SSH auth accepted: fingerprint=%s", fingerprint)
		return true
	}
}
