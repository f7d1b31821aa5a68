package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"gitlab.com/meutraa/foxfactbot/pkg/db"
	"gitlab.com/meutraa/foxfactbot/pkg/env"
	"gitlab.com/meutraa/foxfactbot/pkg/mastodon"
	"gitlab.com/meutraa/foxfactbot/pkg/openai"
	"gitlab.com/meutraa/foxfactbot/pkg/poster"
)

type Server struct {
	env      *Environment
	conn     *sql.DB
	q        *db.Queries
	mastodon *mastodon.Client
	account  *mastodon.Account
	openai   *openai.Client
	loop     *poster.Loop
	api      *http.Server
	apiErr   chan error
	state    state
}

type Environment struct {
	mastodonAccessToken      string
	gptToken                 string
	mastodonServer           string
	openaiEndpoint           string
	openaiModel              string
	factPrompt               string
	postgresConnectionString string
	listenAddress            string
}

// state is what the status api reports about the loop.
type state struct {
	mu         sync.RWMutex
	posts      int64
	lastPostAt time.Time
	lastURL    string
	nextPostAt time.Time
}

func (s *Server) Close() {
	if nil != s.api {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		s.api.Shutdown(ctx)
	}
	if nil != s.q {
		s.q.Close()
	}
	if nil != s.conn {
		s.conn.Close()
	}
}

func (s *Server) ReadEnvironmentVariables() error {
	s.env = &Environment{}
	hasAccessToken := env.AccessToken(&s.env.mastodonAccessToken)
	hasGPTToken := env.GPTToken(&s.env.gptToken)
	if !hasAccessToken || !hasGPTToken {
		return errors.New("missing environment variable")
	}

	s.env.mastodonServer = env.Optional(env.MastodonServer, mastodon.DefaultServer)
	s.env.openaiEndpoint = env.Optional(env.OpenAIEndpoint, openai.DefaultEndpoint)
	s.env.openaiModel = env.Optional(env.OpenAIModel, poster.DefaultModel)
	s.env.factPrompt = env.Optional(env.FactPrompt, poster.DefaultPrompt)
	s.env.postgresConnectionString = env.Optional(env.PostgresConnectionString, "")
	s.env.listenAddress = env.Optional(env.ListenAddress, "")
	return nil
}

// PrepareDatabase is a no-op unless a connection string is configured.
func (s *Server) PrepareDatabase(ctx context.Context) error {
	if "" == s.env.postgresConnectionString {
		return nil
	}

	conn, err := db.Connection(ctx, s.env.postgresConnectionString)
	if nil != err {
		return err
	}
	s.conn = conn

	if err := db.Migrate(ctx, conn); nil != err {
		return err
	}

	queries, err := db.Prepare(ctx, conn)
	if nil != err {
		return errors.Wrap(err, "unable to prepare queries")
	}
	s.q = queries
	return nil
}

func (s *Server) PrepareMastodon(ctx context.Context) error {
	s.mastodon = mastodon.New(s.env.mastodonServer, s.env.mastodonAccessToken)

	account, err := s.mastodon.Verify(ctx)
	if nil != err {
		return err
	}
	s.account = account
	log.Println("verified mastodon account", account.Acct, "on", s.env.mastodonServer)
	return nil
}

func (s *Server) PrepareCompletion() {
	s.openai = openai.NewClient(s.env.gptToken, openai.WithEndpoint(s.env.openaiEndpoint))
	log.Println("requesting", s.env.openaiModel, "completions from", s.openai.Endpoint())
}

func (s *Server) PrepareLoop(ctx context.Context) error {
	cfg := poster.Config{
		Completer: s.openai,
		Publisher: s.mastodon,
		Model:     s.env.openaiModel,
		Prompt:    s.env.factPrompt,
		OnPosted:  s.onPosted,
		OnSleep:   s.onSleep,
	}
	if nil != s.q {
		posted, err := s.q.CountPosts(ctx)
		if nil != err {
			return errors.Wrap(err, "unable to count archived posts")
		}
		cfg.Recorder = archive{s.q}
		cfg.Posted = posted
	}
	s.loop = poster.New(cfg)
	return nil
}

func (s *Server) onPosted(r poster.Result) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	s.state.posts++
	s.state.lastPostAt = time.Now()
	s.state.lastURL = r.Status.URL
}

func (s *Server) onSleep(d time.Duration) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	s.state.nextPostAt = time.Now().Add(d)
}

// archive stores every published status.
type archive struct {
	q *db.Queries
}

func (a archive) Record(ctx context.Context, r poster.Result) error {
	return a.q.CreatePost(ctx, db.CreatePostParams{
		StatusID:         r.Status.ID,
		Url:              r.Status.URL,
		Content:          r.Text,
		Model:            r.Model,
		PromptTokens:     r.Usage.PromptTokens,
		CompletionTokens: r.Usage.CompletionTokens,
		TotalTokens:      r.Usage.TotalTokens,
	})
}
