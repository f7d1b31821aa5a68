package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hako/durafmt"
	"github.com/pkg/errors"
	"gitlab.com/meutraa/foxfactbot/pkg/db"
)

const maxPostsLimit = 100

// PrepareAPI binds LISTEN_ADDRESS and serves the status api in the
// background. Without it the process opens no port. Serve failures are sent
// to apiErr.
func (s *Server) PrepareAPI() error {
	if "" == s.env.listenAddress {
		return nil
	}

	ln, err := net.Listen("tcp", s.env.listenAddress)
	if nil != err {
		return errors.Wrap(err, "unable to listen on "+s.env.listenAddress)
	}

	s.api = &http.Server{Handler: s.router()}
	s.apiErr = make(chan error, 1)

	go func() {
		log.Println("serving status api on", ln.Addr())
		if err := s.api.Serve(ln); nil != err && err != http.ErrServerClosed {
			s.apiErr <- errors.Wrap(err, "status api stopped")
		}
	}()
	return nil
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/status", s.getStatus())
	r.Get("/posts", s.listPosts())
	return r
}

type statusResponse struct {
	Account    string     `json:"account"`
	Posts      int64      `json:"posts"`
	LastPost   string     `json:"last_post,omitempty"`
	LastPostAt *time.Time `json:"last_post_at,omitempty"`
	NextPostAt *time.Time `json:"next_post_at,omitempty"`
	NextPostIn string     `json:"next_post_in,omitempty"`
}

func (s *Server) getStatus() http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.state.mu.RLock()
		res := statusResponse{
			Posts:    s.state.posts,
			LastPost: s.state.lastURL,
		}
		if !s.state.lastPostAt.IsZero() {
			t := s.state.lastPostAt
			res.LastPostAt = &t
		}
		if !s.state.nextPostAt.IsZero() {
			t := s.state.nextPostAt
			res.NextPostAt = &t
			if d := time.Until(t); d > 0 {
				res.NextPostIn = durafmt.Parse(d).LimitFirstN(2).String()
			}
		}
		s.state.mu.RUnlock()

		if nil != s.account {
			res.Account = s.account.Acct
		}

		// The archive outlives restarts, so prefer its count.
		if nil != s.q {
			count, err := s.q.CountPosts(r.Context())
			if nil != err {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			res.Posts = count
		}

		writeJSON(w, res)
	})
}

func (s *Server) listPosts() http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if nil == s.q {
			http.Error(w, "post archive is not configured", http.StatusNotFound)
			return
		}

		limit := int64(20)
		if str := r.URL.Query().Get("limit"); "" != str {
			var err error
			limit, err = strconv.ParseInt(str, 10, 32)
			if nil != err || limit < 1 {
				http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
		}
		if limit > maxPostsLimit {
			limit = maxPostsLimit
		}

		posts, err := s.q.GetRecentPosts(r.Context(), int32(limit))
		if nil != err && err != sql.ErrNoRows {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if nil == posts {
			posts = []db.Post{}
		}
		writeJSON(w, posts)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	res, err := json.Marshal(v)
	if nil != err {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(res)
}
