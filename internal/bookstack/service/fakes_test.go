package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/cache"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/domain"
	"github.com/aussiebroadwan/bookstack/internal/bookstack/store"
)

// fakeStore is an in-memory store.Store. It implements every sub-repository
// itself and hands itself out, which keeps the fake small. All state is
// guarded by one mutex; tests are not performance-sensitive.
type fakeStore struct {
	mu sync.Mutex

	users     map[string]domain.User    // by id
	sessions  map[string]domain.Session // by id
	books     map[string]domain.Book    // by isbn
	ratings   map[string]domain.Rating  // by userID|isbn
	reviews   map[string]domain.Review  // by id
	bookmarks map[string]domain.Bookmark
	tokens    map[string]domain.VerificationToken
	history   []historyRow

	// Search behaviour is scripted rather than computed.
	searchResults []domain.Book
	searchTotal   int
	searchErr     error
	searchCalls   int
	lastSearch    store.SearchQuery

	titleErr   error
	authorErr  error
	popularErr error
	popular    []domain.PopularBook

	// createSessionFails makes the next N CreateSession calls fail.
	createSessionFails int

	refreshCalls int
}

type historyRow struct {
	userID string
	query  string
	at     time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:     make(map[string]domain.User),
		sessions:  make(map[string]domain.Session),
		books:     make(map[string]domain.Book),
		ratings:   make(map[string]domain.Rating),
		reviews:   make(map[string]domain.Review),
		bookmarks: make(map[string]domain.Bookmark),
		tokens:    make(map[string]domain.VerificationToken),
	}
}

func (f *fakeStore) Users() store.Users                           { return f }
func (f *fakeStore) Sessions() store.Sessions                     { return f }
func (f *fakeStore) Books() store.Books                           { return f }
func (f *fakeStore) Ratings() store.Ratings                       { return f }
func (f *fakeStore) Reviews() store.Reviews                       { return f }
func (f *fakeStore) Bookmarks() store.Bookmarks                   { return f }
func (f *fakeStore) SearchHistory() store.SearchHistory           { return f }
func (f *fakeStore) VerificationTokens() store.VerificationTokens { return f }

func (f *fakeStore) ApplyMigrations() error         { return nil }
func (f *fakeStore) Close() error                   { return nil }
func (f *fakeStore) Ping(ctx context.Context) error { return nil }

func (f *fakeStore) Tx(ctx context.Context) (store.Tx, error) { return &fakeTx{f}, nil }

func (f *fakeStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return fn(&fakeTx{f})
}

// fakeTx is non-atomic; tests asserting transactional behaviour do so by
// checking end state, not isolation.
type fakeTx struct{ *fakeStore }

func (t *fakeTx) Commit() error   { return nil }
func (t *fakeTx) Rollback() error { return nil }

// --- Users ---

func (f *fakeStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, store.ErrNotFound
}

func (f *fakeStore) CreateUser(ctx context.Context, u domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email || existing.Username == u.Username {
			return store.ErrAlreadyExists
		}
	}
	u.CreatedAt = time.Now().UTC()
	f.users[u.ID] = u
	return nil
}

func (f *fakeStore) ActivateUser(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.IsActive = true
	f.users[userID] = u
	return nil
}

func (f *fakeStore) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.LastLogin = &at
	f.users[userID] = u
	return nil
}

// --- Sessions ---

func (f *fakeStore) CreateSession(ctx context.Context, s domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createSessionFails > 0 {
		f.createSessionFails--
		return errors.New("scripted create failure")
	}
	if _, ok := f.sessions[s.ID]; ok {
		return store.ErrAlreadyExists
	}
	s.CreatedAt = time.Now().UTC()
	f.sessions[s.ID] = s
	return nil
}

func (f *fakeStore) GetSession(ctx context.Context, id string) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return domain.Session{}, store.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) GetActiveSession(ctx context.Context, id string) (domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok || !s.ExpiresAt.After(time.Now().UTC()) {
		return domain.Session{}, store.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) ListActiveSessionsByUser(ctx context.Context, userID string) ([]domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	var out []domain.Session
	for _, s := range f.sessions {
		if s.UserID == userID && s.ExpiresAt.After(now) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) DeleteSession(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, id)
	return nil
}

func (f *fakeStore) DeleteUserSessions(ctx context.Context, userID string, keep ...string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := make(map[string]bool, len(keep))
	for _, id := range keep {
		kept[id] = true
	}
	var deleted []string
	for id, s := range f.sessions {
		if s.UserID == userID && !kept[id] {
			delete(f.sessions, id)
			deleted = append(deleted, id)
		}
	}
	return deleted, nil
}

func (f *fakeStore) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	var n int64
	for id, s := range f.sessions {
		if !s.ExpiresAt.After(now) {
			delete(f.sessions, id)
			n++
		}
	}
	return n, nil
}

// --- Books ---

func (f *fakeStore) GetBook(ctx context.Context, isbn string) (domain.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[isbn]
	if !ok {
		return domain.Book{}, store.ErrNotFound
	}
	return b, nil
}

func (f *fakeStore) CreateBook(ctx context.Context, b domain.Book) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.books[b.ISBN]; ok {
		return store.ErrAlreadyExists
	}
	b.CreatedAt = time.Now().UTC()
	f.books[b.ISBN] = b
	return nil
}

func (f *fakeStore) SearchBooks(ctx context.Context, q store.SearchQuery) ([]domain.Book, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	f.lastSearch = q
	if f.searchErr != nil {
		return nil, 0, f.searchErr
	}
	total := f.searchTotal
	if total == 0 {
		total = len(f.searchResults)
	}
	return f.searchResults, total, nil
}

func (f *fakeStore) TitleSuggestions(ctx context.Context, prefix string, limit int) ([]domain.TitleSuggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.titleErr != nil {
		return nil, f.titleErr
	}
	var out []domain.TitleSuggestion
	for _, b := range f.books {
		if strings.HasPrefix(strings.ToLower(b.Title), strings.ToLower(prefix)) {
			out = append(out, domain.TitleSuggestion{ISBN: b.ISBN, Title: b.Title, Score: 1})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) AuthorSuggestions(ctx context.Context, prefix string, limit int) ([]domain.AuthorSuggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.authorErr != nil {
		return nil, f.authorErr
	}
	counts := make(map[string]int)
	for _, b := range f.books {
		if strings.HasPrefix(strings.ToLower(b.Author), strings.ToLower(prefix)) {
			counts[b.Author]++
		}
	}
	var out []domain.AuthorSuggestion
	for a, n := range counts {
		out = append(out, domain.AuthorSuggestion{Author: a, BookCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Author < out[j].Author })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) PopularBooks(ctx context.Context, limit int) ([]domain.PopularBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.popularErr != nil {
		return nil, f.popularErr
	}
	out := f.popular
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) RefreshPopularBooks(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	return nil
}

// --- Ratings ---

func ratingKey(userID, isbn string) string { return userID + "|" + isbn }

func (f *fakeStore) UpsertRating(ctx context.Context, r domain.Rating) (domain.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ratingKey(r.UserID, r.BookISBN)
	now := time.Now().UTC()
	if existing, ok := f.ratings[key]; ok {
		existing.Rating = r.Rating
		existing.UpdatedAt = now
		f.ratings[key] = existing
		return existing, nil
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	f.ratings[key] = r
	return r, nil
}

func (f *fakeStore) GetRating(ctx context.Context, userID, isbn string) (domain.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.ratings[ratingKey(userID, isbn)]
	if !ok {
		return domain.Rating{}, store.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) DeleteRating(ctx context.Context, userID, isbn string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ratingKey(userID, isbn)
	if _, ok := f.ratings[key]; !ok {
		return store.ErrNotFound
	}
	delete(f.ratings, key)
	return nil
}

func (f *fakeStore) ListUserRatings(ctx context.Context, userID string, offset, limit int) ([]domain.Rating, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []domain.Rating
	for _, r := range f.ratings {
		if r.UserID == userID {
			all = append(all, r)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return pageOf(all, offset, limit), len(all), nil
}

// --- Reviews ---

func (f *fakeStore) CreateReview(ctx context.Context, r domain.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.reviews {
		if existing.UserID == r.UserID && existing.BookISBN == r.BookISBN {
			return store.ErrAlreadyExists
		}
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	f.reviews[r.ID] = r
	return nil
}

func (f *fakeStore) GetReview(ctx context.Context, id string) (domain.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reviews[id]
	if !ok {
		return domain.Review{}, store.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) UpdateReview(ctx context.Context, r domain.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reviews[r.ID]; !ok {
		return store.ErrNotFound
	}
	r.UpdatedAt = time.Now().UTC()
	f.reviews[r.ID] = r
	return nil
}

func (f *fakeStore) DeleteReview(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reviews[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.reviews, id)
	return nil
}

func (f *fakeStore) ListBookReviews(ctx context.Context, isbn string, approvedOnly bool, offset, limit int) ([]domain.Review, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []domain.Review
	for _, r := range f.reviews {
		if r.BookISBN != isbn {
			continue
		}
		if approvedOnly && r.Status != domain.ReviewApproved {
			continue
		}
		all = append(all, r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return pageOf(all, offset, limit), len(all), nil
}

// --- Bookmarks ---

func (f *fakeStore) CreateBookmark(ctx context.Context, b domain.Bookmark) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ratingKey(b.UserID, b.BookISBN)
	if _, ok := f.bookmarks[key]; ok {
		return store.ErrAlreadyExists
	}
	b.CreatedAt = time.Now().UTC()
	f.bookmarks[key] = b
	return nil
}

func (f *fakeStore) DeleteBookmark(ctx context.Context, userID, isbn string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ratingKey(userID, isbn)
	if _, ok := f.bookmarks[key]; !ok {
		return store.ErrNotFound
	}
	delete(f.bookmarks, key)
	return nil
}

func (f *fakeStore) ListUserBookmarks(ctx context.Context, userID string, offset, limit int) ([]domain.Bookmark, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []domain.Bookmark
	for _, b := range f.bookmarks {
		if b.UserID == userID {
			all = append(all, b)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return pageOf(all, offset, limit), len(all), nil
}

// --- SearchHistory ---

func (f *fakeStore) AppendSearch(ctx context.Context, userID, query string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, historyRow{userID, query, at})
	return nil
}

func (f *fakeStore) DeleteSearch(ctx context.Context, userID, query string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.history[:0]
	for _, h := range f.history {
		if h.userID != userID || h.query != query {
			kept = append(kept, h)
		}
	}
	f.history = kept
	return nil
}

func (f *fakeStore) DeleteAllSearches(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.history[:0]
	for _, h := range f.history {
		if h.userID != userID {
			kept = append(kept, h)
		}
	}
	f.history = kept
	return nil
}

func (f *fakeStore) DeleteOldSearches(ctx context.Context, before time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	kept := f.history[:0]
	for _, h := range f.history {
		if h.at.Before(before) {
			n++
			continue
		}
		kept = append(kept, h)
	}
	f.history = kept
	return n, nil
}

// --- VerificationTokens ---

func (f *fakeStore) CreateVerificationToken(ctx context.Context, t domain.VerificationToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[t.Token]; ok {
		return store.ErrAlreadyExists
	}
	t.CreatedAt = time.Now().UTC()
	f.tokens[t.Token] = t
	return nil
}

func (f *fakeStore) GetVerificationToken(ctx context.Context, token string) (domain.VerificationToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok || !t.ExpiresAt.After(time.Now().UTC()) {
		return domain.VerificationToken{}, store.ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) DeleteVerificationToken(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}

func (f *fakeStore) DeleteExpiredVerificationTokens(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	var n int64
	for token, t := range f.tokens {
		if !t.ExpiresAt.After(now) {
			delete(f.tokens, token)
			n++
		}
	}
	return n, nil
}

func pageOf[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

// fakeBlacklist is an in-memory SessionBlacklist with scriptable failures.
type fakeBlacklist struct {
	mu        sync.Mutex
	revoked   map[string]bool
	revokeErr error
	lookupErr error
}

func newFakeBlacklist() *fakeBlacklist {
	return &fakeBlacklist{revoked: make(map[string]bool)}
}

func (f *fakeBlacklist) Revoke(ctx context.Context, sessionID string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked[sessionID] = true
	return nil
}

func (f *fakeBlacklist) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return false, f.lookupErr
	}
	return f.revoked[sessionID], nil
}

// fakeResultCache is an in-memory ResultCache.
type fakeResultCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	getErr  error
	setErr  error
	deleted []string
}

func newFakeResultCache() *fakeResultCache {
	return &fakeResultCache{entries: make(map[string][]byte)}
}

func (f *fakeResultCache) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.entries[key], nil
}

func (f *fakeResultCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.entries[key] = val
	return nil
}

func (f *fakeResultCache) Delete(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.entries, key)
		f.deleted = append(f.deleted, key)
	}
	return nil
}

// fakeHistoryCache is an in-memory HistoryCache keyed by user.
type fakeHistoryCache struct {
	mu        sync.Mutex
	entries   map[string][]cache.HistoryEntry
	recordErr error
	recentErr error
}

func newFakeHistoryCache() *fakeHistoryCache {
	return &fakeHistoryCache{entries: make(map[string][]cache.HistoryEntry)}
}

func (f *fakeHistoryCache) Record(ctx context.Context, userID, query string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil {
		return f.recordErr
	}
	entries := f.entries[userID]
	// Replace an existing entry for the same query, like ZADD does.
	kept := entries[:0]
	for _, e := range entries {
		if e.Query != query {
			kept = append(kept, e)
		}
	}
	f.entries[userID] = append(kept, cache.HistoryEntry{Query: query, At: at})
	return nil
}

func (f *fakeHistoryCache) Recent(ctx context.Context, userID string, limit int) ([]cache.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	entries := append([]cache.HistoryEntry(nil), f.entries[userID]...)
	sort.Slice(entries, func(i, j int) bool { return entries[i].At.After(entries[j].At) })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (f *fakeHistoryCache) Remove(ctx context.Context, userID, query string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries := f.entries[userID]
	kept := entries[:0]
	for _, e := range entries {
		if e.Query != query {
			kept = append(kept, e)
		}
	}
	f.entries[userID] = kept
	return nil
}

func (f *fakeHistoryCache) Clear(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, userID)
	return nil
}

// fakeMailer records sends on a channel so tests can wait for the
// fire-and-forget goroutine.
type fakeMailer struct {
	sent chan sentMail
	err  error
}

type sentMail struct {
	to       string
	username string
	token    string
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{sent: make(chan sentMail, 8)}
}

func (f *fakeMailer) SendVerificationEmail(ctx context.Context, to, username, token string) error {
	if f.err != nil {
		return f.err
	}
	f.sent <- sentMail{to, username, token}
	return nil
}

// fakeCatalog scripts external catalog lookups.
type fakeCatalog struct {
	books map[string]domain.Book
	err   error
	calls int
}

func (f *fakeCatalog) Lookup(ctx context.Context, isbn string) (domain.Book, error) {
	f.calls++
	if f.err != nil {
		return domain.Book{}, f.err
	}
	b, ok := f.books[isbn]
	if !ok {
		return domain.Book{}, errors.New("unscripted isbn")
	}
	return b, nil
}

// fakeRecommender scripts recommendation responses.
type fakeRecommender struct {
	isbns []string
	err   error
}

func (f *fakeRecommender) Recommend(ctx context.Context, userID string, topN int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.isbns) > topN {
		return f.isbns[:topN], nil
	}
	return f.isbns, nil
}
