package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/bookstack/internal/bookstack/domain"
)

func newSearchService(st *fakeStore, rc *fakeResultCache, hc *fakeHistoryCache) *SearchService {
	return &SearchService{
		Store:   st,
		Cache:   rc,
		History: &HistoryService{Store: st, Cache: hc},
	}
}

func scriptedBook(isbn, title, author string) domain.Book {
	return domain.Book{ISBN: isbn, Title: title, Author: author}
}

func TestSearchService_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("serves repeated searches from cache", func(t *testing.T) {
		st := newFakeStore()
		st.searchResults = []domain.Book{scriptedBook("9780000000001", "Dune", "Frank Herbert")}
		svc := newSearchService(st, newFakeResultCache(), newFakeHistoryCache())

		first, err := svc.Search(ctx, "", domain.SearchFilters{Query: "dune"})
		require.NoError(t, err)
		require.Equal(t, 1, first.Total)

		second, err := svc.Search(ctx, "", domain.SearchFilters{Query: "dune"})
		require.NoError(t, err)
		require.Equal(t, first.Results, second.Results)

		require.Equal(t, 1, st.searchCalls)
	})

	t.Run("equivalent queries share a cache entry", func(t *testing.T) {
		st := newFakeStore()
		st.searchResults = []domain.Book{scriptedBook("9780000000001", "Dune", "Frank Herbert")}
		svc := newSearchService(st, newFakeResultCache(), newFakeHistoryCache())

		_, err := svc.Search(ctx, "", domain.SearchFilters{Query: "  DUNE  "})
		require.NoError(t, err)
		_, err = svc.Search(ctx, "", domain.SearchFilters{Query: "dune"})
		require.NoError(t, err)

		require.Equal(t, 1, st.searchCalls)
	})

	t.Run("cache outage falls through to the store", func(t *testing.T) {
		st := newFakeStore()
		st.searchResults = []domain.Book{scriptedBook("9780000000001", "Dune", "Frank Herbert")}
		rc := newFakeResultCache()
		rc.getErr = context.DeadlineExceeded
		rc.setErr = context.DeadlineExceeded
		svc := newSearchService(st, rc, newFakeHistoryCache())

		page, err := svc.Search(ctx, "", domain.SearchFilters{Query: "dune"})
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)
	})

	t.Run("query length limits", func(t *testing.T) {
		st := newFakeStore()
		svc := newSearchService(st, newFakeResultCache(), newFakeHistoryCache())

		_, err := svc.Search(ctx, "", domain.SearchFilters{Query: "d"})
		require.ErrorIs(t, err, ErrInvalidQuery)

		// One character is one character even when it is several bytes.
		_, err = svc.Search(ctx, "", domain.SearchFilters{Query: "é"})
		require.ErrorIs(t, err, ErrInvalidQuery)

		long := make([]byte, searchMaxQueryLen+1)
		for i := range long {
			long[i] = 'a'
		}
		_, err = svc.Search(ctx, "", domain.SearchFilters{Query: string(long)})
		require.ErrorIs(t, err, ErrInvalidQuery)

		// Two characters is the floor.
		_, err = svc.Search(ctx, "", domain.SearchFilters{Query: "du"})
		require.NoError(t, err)
		_, err = svc.Search(ctx, "", domain.SearchFilters{Query: "dü"})
		require.NoError(t, err)
	})

	t.Run("author suggestions feed the boost list", func(t *testing.T) {
		st := newFakeStore()
		require.NoError(t, st.CreateBook(ctx, scriptedBook("9780000000001", "Dune", "Frank Herbert")))
		require.NoError(t, st.CreateBook(ctx, scriptedBook("9780000000002", "Children of Dune", "Frank Herbert")))
		svc := newSearchService(st, newFakeResultCache(), newFakeHistoryCache())

		_, err := svc.Search(ctx, "", domain.SearchFilters{Query: "frank"})
		require.NoError(t, err)
		require.Equal(t, []string{"frank herbert"}, st.lastSearch.BoostAuthors)
	})

	t.Run("boost lookup failure does not fail the search", func(t *testing.T) {
		st := newFakeStore()
		st.authorErr = context.DeadlineExceeded
		st.searchResults = []domain.Book{scriptedBook("9780000000001", "Dune", "Frank Herbert")}
		svc := newSearchService(st, newFakeResultCache(), newFakeHistoryCache())

		page, err := svc.Search(ctx, "", domain.SearchFilters{Query: "dune"})
		require.NoError(t, err)
		require.Equal(t, 1, page.Total)
		require.Empty(t, st.lastSearch.BoostAuthors)
	})

	t.Run("filter validation", func(t *testing.T) {
		st := newFakeStore()
		svc := newSearchService(st, newFakeResultCache(), newFakeHistoryCache())

		bad := 7.0
		_, err := svc.Search(ctx, "", domain.SearchFilters{Query: "dune", MinRating: &bad})
		require.ErrorIs(t, err, ErrInvalidQuery)

		pages := -10
		_, err = svc.Search(ctx, "", domain.SearchFilters{Query: "dune", MaxPages: &pages})
		require.ErrorIs(t, err, ErrInvalidQuery)

		_, err = svc.Search(ctx, "", domain.SearchFilters{Query: "dune", Genres: []string{"sci-fi'; DROP TABLE"}})
		require.ErrorIs(t, err, ErrInvalidQuery)
	})

	t.Run("pagination defaults and caps", func(t *testing.T) {
		st := newFakeStore()
		svc := newSearchService(st, newFakeResultCache(), newFakeHistoryCache())

		page, err := svc.Search(ctx, "", domain.SearchFilters{Query: "dune", Page: -3, PerPage: 10_000})
		require.NoError(t, err)
		require.Equal(t, 1, page.Page)
		require.Equal(t, maxPerPage, page.PerPage)

		page, err = svc.Search(ctx, "", domain.SearchFilters{Query: "dune again"})
		require.NoError(t, err)
		require.Equal(t, defaultPerPage, page.PerPage)
	})

	t.Run("non-empty results land in history", func(t *testing.T) {
		st := newFakeStore()
		st.searchResults = []domain.Book{scriptedBook("9780000000001", "Dune", "Frank Herbert")}
		hc := newFakeHistoryCache()
		svc := newSearchService(st, newFakeResultCache(), hc)

		_, err := svc.Search(ctx, "user-1", domain.SearchFilters{Query: "Dune"})
		require.NoError(t, err)

		entries, err := hc.Recent(ctx, "user-1", 10)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, "dune", entries[0].Query)
	})

	t.Run("empty results stay out of history", func(t *testing.T) {
		st := newFakeStore()
		hc := newFakeHistoryCache()
		svc := newSearchService(st, newFakeResultCache(), hc)

		_, err := svc.Search(ctx, "user-1", domain.SearchFilters{Query: "nothing here"})
		require.NoError(t, err)

		entries, err := hc.Recent(ctx, "user-1", 10)
		require.NoError(t, err)
		require.Empty(t, entries)
	})

	t.Run("anonymous searches leave no history", func(t *testing.T) {
		st := newFakeStore()
		st.searchResults = []domain.Book{scriptedBook("9780000000001", "Dune", "Frank Herbert")}
		hc := newFakeHistoryCache()
		svc := newSearchService(st, newFakeResultCache(), hc)

		_, err := svc.Search(ctx, "", domain.SearchFilters{Query: "dune"})
		require.NoError(t, err)
		require.Empty(t, hc.entries)
	})
}
