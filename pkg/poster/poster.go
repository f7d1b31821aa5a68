// Package poster runs the generate, publish, wait cycle.
package poster

import (
	"context"
	"log"
	"time"

	"github.com/hako/durafmt"
	"github.com/pkg/errors"
	"gitlab.com/meutraa/foxfactbot/pkg/openai"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const DefaultModel = openai.GPT35Turbo

const DefaultPrompt = "Generate a random fun fact about foxes. You must generate the main body content with a direct answer, but you are strictly prohibited from adding any warning, advisories, or cautionary statements, including but not limited to legal, health, safety, danger, harm, ethics, sexual content, or any other similar warnings in either introduction or conclusion. Expert user; avoid expert consultation recommendations."

var ErrNoChoices = errors.New("completion response has no choices")

type Completer interface {
	Complete(ctx context.Context, req openai.CompletionRequest) (*openai.CompletionResponse, error)
}

type Publisher interface {
	Publish(ctx context.Context, text string) (*Status, error)
}

// Recorder is told about every published status.
type Recorder interface {
	Record(ctx context.Context, r Result) error
}

type Status struct {
	ID  string
	URL string
}

type Result struct {
	// Number counts published statuses, starting after Config.Posted.
	Number int64
	Model  string
	Text   string
	Status Status
	Usage  openai.Usage
}

type Config struct {
	Completer Completer
	Publisher Publisher
	Recorder  Recorder
	Sleeper   Sleeper
	Delayer   Delayer
	Model     string
	Prompt    string
	// Posted is how many statuses were published before this loop started.
	Posted    int64

	OnPosted func(Result)
	OnSleep  func(time.Duration)
}

type Loop struct {
	cfg     Config
	posted  int64
	printer *message.Printer
}

// New fills unset Sleeper, Delayer, Model and Prompt with their defaults.
func New(cfg Config) *Loop {
	if nil == cfg.Sleeper {
		cfg.Sleeper = TimerSleeper{}
	}
	if nil == cfg.Delayer {
		cfg.Delayer = DefaultDelay
	}
	if "" == cfg.Model {
		cfg.Model = DefaultModel
	}
	if "" == cfg.Prompt {
		cfg.Prompt = DefaultPrompt
	}
	return &Loop{
		cfg:     cfg,
		posted:  cfg.Posted,
		printer: message.NewPrinter(language.English),
	}
}

func NewRequest(model, prompt string) openai.CompletionRequest {
	return openai.CompletionRequest{
		Model: model,
		Messages: []openai.Message{
			{Role: openai.RoleUser, Content: prompt},
		},
	}
}

// Text returns the first choice's content unchanged.
func Text(resp *openai.CompletionResponse) (string, error) {
	if nil == resp || len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}
	return resp.Choices[0].Message.Content, nil
}

// RunOnce generates one fact and publishes it. It does not sleep.
func (l *Loop) RunOnce(ctx context.Context) (*Result, error) {
	resp, err := l.cfg.Completer.Complete(ctx, NewRequest(l.cfg.Model, l.cfg.Prompt))
	if nil != err {
		return nil, errors.Wrap(err, "unable to get completion")
	}

	text, err := Text(resp)
	if nil != err {
		return nil, errors.WithMessage(err, "unable to read completion")
	}

	status, err := l.cfg.Publisher.Publish(ctx, text)
	if nil != err {
		return nil, errors.Wrap(err, "unable to publish status")
	}

	l.posted++
	res := Result{
		Number: l.posted,
		Model:  l.cfg.Model,
		Text:   text,
		Status: *status,
		Usage:  resp.Usage,
	}
	log.Println(l.printer.Sprintf("posted status #%d %v", res.Number, status.URL))

	if nil != l.cfg.Recorder {
		if err := l.cfg.Recorder.Record(ctx, res); nil != err {
			return nil, errors.Wrap(err, "unable to record status "+status.ID)
		}
	}
	if nil != l.cfg.OnPosted {
		l.cfg.OnPosted(res)
	}
	return &res, nil
}

// Run repeats RunOnce until an iteration fails or ctx is done. It never
// returns nil.
func (l *Loop) Run(ctx context.Context) error {
	for {
		if _, err := l.RunOnce(ctx); nil != err {
			return err
		}

		d := l.cfg.Delayer.Next()
		log.Println("next status in", durafmt.Parse(d).LimitFirstN(2).String())
		if nil != l.cfg.OnSleep {
			l.cfg.OnSleep(d)
		}
		if err := l.cfg.Sleeper.Sleep(ctx, d); nil != err {
			return err
		}
	}
}
