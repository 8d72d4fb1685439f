package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/service"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/store"
	"github.com/aussiebroadwan/bookstack/pkg/httpx"
	"github.com/aussiebroadwan/bookstack/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store
	redis *redis.Client

	AuthService     *service.AuthService
	UserService     *service.UserService
	SearchService   *service.SearchService
	SuggestService  *service.SuggestService
	HistoryService  *service.HistoryService
	BookService     *service.BookService
	RatingService   *service.RatingService
	ReviewService   *service.ReviewService
	BookmarkService *service.BookmarkService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	rdb *redis.Client,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		redis:        rdb,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSessions()
	r.registerSearch()
	r.registerBooks()
	r.registerRatings()
	r.registerReviews()
	r.registerBookmarks()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// POST /auth/register - strict rate limit by IP (public signup endpoint)
	registerHandler := &RegisterHandler{UserService: r.UserService}
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(registerHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /auth/login - strict rate limit by IP (brute force prevention)
	loginHandler := &LoginHandler{AuthService: r.AuthService}
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /auth/refresh - strict rate limit by IP (token minting)
	refreshHandler := &RefreshHandler{AuthService: r.AuthService}
	r.Mux.Handle("POST /v1/auth/refresh",
		httpx.Chain(refreshHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /auth/logout - authenticated, lenient
	logoutHandler := &LogoutHandler{AuthService: r.AuthService}
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(logoutHandler,
			AuthnMiddleware(r.AuthService),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// GET /auth/verify-email/{token} - moderate rate limit by IP (clicked from mail)
	verifyHandler := &VerifyEmailHandler{UserService: r.UserService}
	r.Mux.Handle("GET /v1/auth/verify-email/{token}",
		httpx.Chain(verifyHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSessions() {
	h := &SessionsHandler{AuthService: r.AuthService}

	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			AuthnMiddleware(r.AuthService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /v1/sessions", secured(h.HandleList))
	r.Mux.Handle("DELETE /v1/sessions/{id}", secured(h.HandleRevoke))
	r.Mux.Handle("DELETE /v1/sessions", secured(h.HandleRevokeOthers))
}

func (r *Router) registerSearch() {
	// Search and suggestions work anonymously; a valid token just adds
	// personalisation, so authentication is optional here.
	searchHandler := &SearchHandler{SearchService: r.SearchService}
	r.Mux.Handle("GET /v1/search",
		httpx.Chain(searchHandler,
			OptionalAuthnMiddleware(r.AuthService),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	suggestHandler := &SuggestionsHandler{SuggestService: r.SuggestService}
	r.Mux.Handle("GET /v1/search/suggestions",
		httpx.Chain(suggestHandler,
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	// History is personal data and requires authentication.
	historyHandler := &HistoryHandler{HistoryService: r.HistoryService}
	securedHistory := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			AuthnMiddleware(r.AuthService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}
	r.Mux.Handle("GET /v1/search/history", securedHistory(historyHandler.HandleGet))
	r.Mux.Handle("DELETE /v1/search/history", securedHistory(historyHandler.HandleDelete))
}

func (r *Router) registerBooks() {
	h := &BooksHandler{BookService: r.BookService}

	// GET /books/{isbn} - public read with a generous limit
	r.Mux.Handle("GET /v1/books/{isbn}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)

	// POST /books - authenticated catalog write
	r.Mux.Handle("POST /v1/books",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			AuthnMiddleware(r.AuthService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// GET /recommendations - authenticated, fans out to the recommender
	recHandler := &RecommendationsHandler{BookService: r.BookService}
	r.Mux.Handle("GET /v1/recommendations",
		httpx.Chain(recHandler,
			AuthnMiddleware(r.AuthService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerRatings() {
	h := &RatingsHandler{RatingService: r.RatingService}

	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			AuthnMiddleware(r.AuthService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("PUT /v1/ratings/{isbn}", secured(h.HandleUpsert))
	r.Mux.Handle("GET /v1/ratings/{isbn}", secured(h.HandleGet))
	r.Mux.Handle("DELETE /v1/ratings/{isbn}", secured(h.HandleDelete))
	r.Mux.Handle("GET /v1/ratings", secured(h.HandleList))
}

func (r *Router) registerReviews() {
	h := &ReviewsHandler{ReviewService: r.ReviewService}

	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			AuthnMiddleware(r.AuthService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("POST /v1/books/{isbn}/reviews", secured(h.HandleCreate))
	r.Mux.Handle("PUT /v1/reviews/{id}", secured(h.HandleUpdate))
	r.Mux.Handle("DELETE /v1/reviews/{id}", secured(h.HandleDelete))

	// Approved reviews are public.
	r.Mux.Handle("GET /v1/books/{isbn}/reviews",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}

func (r *Router) registerBookmarks() {
	h := &BookmarksHandler{BookmarkService: r.BookmarkService}

	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn,
			AuthnMiddleware(r.AuthService),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("POST /v1/bookmarks/{isbn}", secured(h.HandleAdd))
	r.Mux.Handle("DELETE /v1/bookmarks/{isbn}", secured(h.HandleRemove))
	r.Mux.Handle("GET /v1/bookmarks", secured(h.HandleList))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.redis),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
