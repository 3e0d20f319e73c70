package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"Atelie/internal/api/handlers"
	"Atelie/internal/api/middleware"
	"Atelie/internal/core/apperr"
	"Atelie/internal/core/articles"
	"Atelie/internal/core/fetch"
	"Atelie/internal/core/posts"
	"Atelie/internal/core/session"
	"Atelie/internal/core/users"
)

// Handlers provides HTTP handlers for the web screens.
type Handlers struct {
	templates  *Templates
	posts      posts.Service
	articles   articles.Service
	users      users.UserService
	sealer     *session.Sealer
	cookies    *middleware.CookieStore
	sessionTTL time.Duration
}

// NewHandlers creates a new Handlers instance with the provided dependencies.
func NewHandlers(templates *Templates, postService posts.Service, articleService articles.Service,
	userService users.UserService, sealer *session.Sealer, cookies *middleware.CookieStore, sessionTTL time.Duration,
) *Handlers {
	return &Handlers{
		templates:  templates,
		posts:      postService,
		articles:   articleService,
		users:      userService,
		sealer:     sealer,
		cookies:    cookies,
		sessionTTL: sessionTTL,
	}
}

// Page is embedded in every screen's data.
type Page struct {
	Title    string
	SignedIn bool
}

// FeedPage is the home screen.
type FeedPage struct {
	Posts  fetch.State[*posts.Post]
	Latest fetch.State[*posts.Post]
	Page
}

// SearchPage is the search screen.
type SearchPage struct {
	Results fetch.State[*posts.Post]
	Query   string
	Page
}

// ArticlesPage is the articles tab.
type ArticlesPage struct {
	Articles fetch.State[*articles.Article]
	Category string
	Page
}

// ProfilePage is the signed-in user's profile.
type ProfilePage struct {
	User  *users.User
	Posts fetch.State[*posts.Post]
	Page
}

// SignInPage is the sign-in form.
type SignInPage struct {
	Email string
	Error string
	Page
}

// currentSession reads the browser session, if any.
func (h *Handlers) currentSession(r *http.Request) (session.Session, bool) {
	token := h.cookies.Token(r)
	if token == "" {
		return session.Session{}, false
	}
	sess, err := h.sealer.Unseal(token)
	if err != nil {
		log.Debug().Err(err).Msg("web: invalid or expired session cookie")
		return session.Session{}, false
	}
	return sess, true
}

func (h *Handlers) render(w http.ResponseWriter, status int, name string, data any) {
	if err := h.templates.Render(w, status, name, data); err != nil {
		log.Error().Err(err).Str("template", name).Msg("failed to render template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// FeedHandler handles GET /
func (h *Handlers) FeedHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	_, signedIn := h.currentSession(r)

	all, latest := loadPair(r.Context(),
		h.posts.ListPosts,
		func(ctx context.Context) ([]*posts.Post, error) {
			return h.posts.ListLatestPosts(ctx, posts.DefaultLatestLimit)
		},
	)

	h.render(w, http.StatusOK, "feed.html", FeedPage{
		Page:   Page{Title: "Home", SignedIn: signedIn},
		Posts:  all,
		Latest: latest,
	})
}

// SearchHandler handles GET /search?q=
func (h *Handlers) SearchHandler(w http.ResponseWriter, r *http.Request) {
	_, signedIn := h.currentSession(r)
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	data := SearchPage{Page: Page{Title: "Search", SignedIn: signedIn}, Query: query}
	if query != "" {
		data.Results = load(r.Context(), func(ctx context.Context) ([]*posts.Post, error) {
			return h.posts.SearchPosts(ctx, query)
		})
	}
	h.render(w, http.StatusOK, "search.html", data)
}

// ArticlesHandler handles GET /articles?category=
func (h *Handlers) ArticlesHandler(w http.ResponseWriter, r *http.Request) {
	_, signedIn := h.currentSession(r)
	filter := articles.Filter{Category: strings.TrimSpace(r.URL.Query().Get("category"))}

	state := load(r.Context(), func(ctx context.Context) ([]*articles.Article, error) {
		return h.articles.ListArticles(ctx, filter)
	})

	h.render(w, http.StatusOK, "articles.html", ArticlesPage{
		Page:     Page{Title: "Articles", SignedIn: signedIn},
		Articles: state,
		Category: filter.Category,
	})
}

// ProfileHandler handles GET /profile. Redirects to sign-in without a session.
func (h *Handlers) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.currentSession(r)
	if !ok {
		http.Redirect(w, r, "/sign-in", http.StatusFound)
		return
	}

	user, err := h.users.CurrentUser(r.Context(), sess)
	if err != nil {
		if apperr.Is(err, apperr.KindUnauthorized) {
			h.clearCookie(w, r)
			http.Redirect(w, r, "/sign-in", http.StatusFound)
			return
		}
		log.Warn().Err(err).Str("user_id", sess.UserID).Msg("web: failed to load current user")
		user = &users.User{ID: sess.UserID, Username: sess.Username}
	}

	state := load(r.Context(), func(ctx context.Context) ([]*posts.Post, error) {
		return h.posts.ListUserPosts(ctx, sess.UserID)
	})

	h.render(w, http.StatusOK, "profile.html", ProfilePage{
		Page:  Page{Title: user.Username, SignedIn: true},
		User:  user,
		Posts: state,
	})
}

// SignInPageHandler handles GET /sign-in
func (h *Handlers) SignInPageHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentSession(r); ok {
		http.Redirect(w, r, "/profile", http.StatusFound)
		return
	}
	h.render(w, http.StatusOK, "sign_in.html", SignInPage{Page: Page{Title: "Sign in"}})
}

// SignInSubmitHandler handles POST /sign-in
func (h *Handlers) SignInSubmitHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 16*1024)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	result, err := h.users.SignIn(r.Context(), users.SignInRequest{
		Email:    email,
		Password: r.PostFormValue("password"),
	})
	if err != nil {
		h.render(w, handlers.StatusOf(err), "sign_in.html", SignInPage{
			Page:  Page{Title: "Sign in"},
			Email: email,
			Error: apperr.MessageOf(err),
		})
		return
	}

	token, expiresAt, err := h.sealer.Issue(result.Session, h.sessionTTL)
	if err != nil {
		log.Error().Err(err).Msg("web: failed to seal session")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if err := h.cookies.Save(w, r, token, expiresAt); err != nil {
		log.Error().Err(err).Msg("web: failed to save session cookie")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/profile", http.StatusFound)
}

// SignOutHandler handles POST /sign-out. The cookie is cleared even when
// the backend session could not be revoked.
func (h *Handlers) SignOutHandler(w http.ResponseWriter, r *http.Request) {
	if sess, ok := h.currentSession(r); ok {
		if err := h.users.SignOut(r.Context(), sess); err != nil {
			log.Warn().Err(err).Str("user_id", sess.UserID).Msg("web: sign out failed")
		}
	}
	h.clearCookie(w, r)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *Handlers) clearCookie(w http.ResponseWriter, r *http.Request) {
	if err := h.cookies.Clear(w, r); err != nil {
		log.Error().Err(err).Msg("web: failed to clear session cookie")
	}
}
