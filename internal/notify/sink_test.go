package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/BallDevTools/telegram-bot/internal/domain"

	"github.com/segmentio/kafka-go"
	tele "gopkg.in/telebot.v3"
)

type fakeSender struct {
	to   tele.Recipient
	text string
	err  error
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	f.to = to
	f.text, _ = what.(string)
	if f.err != nil {
		return nil, f.err
	}
	return &tele.Message{}, nil
}

func TestTelegramSinkSendsFormattedText(t *testing.T) {
	sender := &fakeSender{}
	sink := NewTelegramSink(sender, -1001)

	if err := sink.Publish(context.Background(), buyAnalysis()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.to.Recipient() != "-1001" {
		t.Fatalf("unexpected recipient %q", sender.to.Recipient())
	}
	if !strings.Contains(sender.text, "STRONG BUY") {
		t.Fatalf("unexpected text: %s", sender.text)
	}

	sender.err = errors.New("forbidden")
	if err := sink.Publish(context.Background(), buyAnalysis()); err == nil {
		t.Fatal("expected send error")
	}
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func TestKafkaSinkPublishesJSON(t *testing.T) {
	w := &fakeWriter{}
	sink := NewKafkaSink(w)

	if err := sink.Publish(context.Background(), buyAnalysis()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.msgs) != 1 || string(w.msgs[0].Key) != "BTC" {
		t.Fatalf("unexpected messages: %+v", w.msgs)
	}

	var decoded domain.Analysis
	if err := json.Unmarshal(w.msgs[0].Value, &decoded); err != nil {
		t.Fatalf("value is not JSON: %v", err)
	}
	if decoded.Signal.Classification != domain.StrongBuy || decoded.ID != "id-1" {
		t.Fatalf("unexpected payload: %+v", decoded)
	}
	if string(w.msgs[0].Headers[0].Value) != "STRONG_BUY" {
		t.Fatalf("unexpected headers: %+v", w.msgs[0].Headers)
	}
}

type recordingSink struct {
	name  string
	err   error
	calls int
}

func (r *recordingSink) Name() string { return r.name }

func (r *recordingSink) Publish(context.Context, domain.Analysis) error {
	r.calls++
	return r.err
}

func TestMultiSinkDeliversToAllAndJoinsErrors(t *testing.T) {
	errA := errors.New("a down")
	a := &recordingSink{name: "a", err: errA}
	b := &recordingSink{name: "b"}
	c := &recordingSink{name: "c", err: errors.New("c down")}

	err := MultiSink{a, b, c}.Publish(context.Background(), buyAnalysis())
	if a.calls != 1 || b.calls != 1 || c.calls != 1 {
		t.Fatalf("every sink should be called once: %d %d %d", a.calls, b.calls, c.calls)
	}
	if !errors.Is(err, errA) || !strings.Contains(err.Error(), "c down") {
		t.Fatalf("expected joined errors, got %v", err)
	}

	if err := (MultiSink{b}).Publish(context.Background(), buyAnalysis()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
