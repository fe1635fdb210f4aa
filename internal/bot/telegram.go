package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BallDevTools/telegram-bot/internal/domain"
	"github.com/BallDevTools/telegram-bot/internal/notify"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

type SignalSource interface {
	Latest(ctx context.Context) (domain.Analysis, error)
	Analyze(ctx context.Context) (domain.Analysis, error)
}

type Explainer interface {
	Explain(ctx context.Context, a domain.Analysis, question string) (string, error)
}

// Router is the part of *tele.Bot handlers are registered on.
type Router interface {
	Handle(endpoint interface{}, h tele.HandlerFunc, m ...tele.MiddlewareFunc)
}

const commandTimeout = 45 * time.Second

var newBot = tele.NewBot

// NewTelegramBot returns nil without error when token is empty.
func NewTelegramBot(token string) (*tele.Bot, error) {
	if strings.TrimSpace(token) == "" {
		zap.S().Info("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil, nil
	}
	b, err := newBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("create Telegram bot: %w", err)
	}
	return b, nil
}

// Handlers answers chat commands. explainer may be nil.
type Handlers struct {
	signals   SignalSource
	explainer Explainer
}

func NewHandlers(signals SignalSource, explainer Explainer) *Handlers {
	return &Handlers{signals: signals, explainer: explainer}
}

func (h *Handlers) Register(r Router) {
	r.Handle("/start", h.help)
	r.Handle("/help", h.help)
	r.Handle("/ping", h.ping)
	r.Handle("/signal", h.signal)
	r.Handle("/analyze", h.analyze)
	r.Handle("/explain", h.explain)
}

const helpText = `/signal - latest signal (cached)
/analyze - run a fresh analysis
/explain [question] - commentary on the latest signal
/ping - health check`

func (h *Handlers) help(c tele.Context) error {
	return c.Send(helpText)
}

func (h *Handlers) ping(c tele.Context) error {
	return c.Send("pong")
}

func (h *Handlers) signal(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	a, err := h.signals.Latest(ctx)
	if err != nil {
		zap.S().Warnw("/signal failed", "error", err)
		return c.Send(fmt.Sprintf("Could not load the latest signal: %v", err))
	}
	return c.Send(notify.Format(a), tele.NoPreview)
}

func (h *Handlers) analyze(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	a, err := h.signals.Analyze(ctx)
	if err != nil {
		zap.S().Warnw("/analyze failed", "error", err)
		return c.Send(fmt.Sprintf("Analysis failed: %v", err))
	}
	return c.Send(notify.Format(a), tele.NoPreview)
}

func (h *Handlers) explain(c tele.Context) error {
	if h.explainer == nil {
		return c.Send("Explanations are disabled (OPENAI_API_KEY not set).")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	a, err := h.signals.Latest(ctx)
	if err != nil {
		return c.Send(fmt.Sprintf("Could not load the latest signal: %v", err))
	}
	if a.Signal.Classification == domain.NoData {
		return c.Send(notify.Format(a))
	}

	text, err := h.explainer.Explain(ctx, a, strings.Join(c.Args(), " "))
	if err != nil {
		zap.S().Warnw("/explain failed", "error", err)
		return c.Send("The advisor is unavailable right now. Try /signal instead.")
	}
	return c.Send(fmt.Sprintf("%s %s (%d%%)\n\n%s", a.Symbol, notify.Label(a.Signal.Classification), a.Signal.Confidence, text))
}

// StartTelegramBot registers the command handlers and starts polling in the
// background.
func StartTelegramBot(b *tele.Bot, h *Handlers) {
	h.Register(b)
	zap.S().Info("Telegram bot started")
	go b.Start()
}
