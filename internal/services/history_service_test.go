package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-search-server/internal/domain"
)

func TestHistoryListPage_DefaultsAndOffset(t *testing.T) {
	repo := &fakeQueryLogRepo{countTotal: 42, pageItems: []domain.QueryLog{{ID: "q1"}}}
	s := &HistoryService{Repo: repo}

	items, total, err := s.ListPage(context.Background(), 0, 0)
	if err != nil || total != 42 || len(items) != 1 {
		t.Fatalf("ListPage = %v, %d, %v", items, total, err)
	}
	if repo.pageOffset != 0 || repo.pageLimit != 20 {
		t.Fatalf("defaults not applied: offset=%d limit=%d", repo.pageOffset, repo.pageLimit)
	}

	if _, _, err := s.ListPage(context.Background(), 3, 5); err != nil {
		t.Fatalf("ListPage: %v", err)
	}
	if repo.pageOffset != 10 || repo.pageLimit != 5 {
		t.Fatalf("offset/limit = %d/%d; want 10/5", repo.pageOffset, repo.pageLimit)
	}
}

func TestHistoryListPage_EmptyAndErrors(t *testing.T) {
	repo := &fakeQueryLogRepo{}
	s := &HistoryService{Repo: repo}

	items, total, err := s.ListPage(context.Background(), 1, 10)
	if err != nil || total != 0 || items == nil || len(items) != 0 {
		t.Fatalf("empty history should give an empty slice, got %#v, %d, %v", items, total, err)
	}

	repo.countErr = errBoom
	if _, _, err := s.ListPage(context.Background(), 1, 10); !errors.Is(err, errBoom) {
		t.Fatalf("count error not propagated: %v", err)
	}

	repo.countErr = nil
	repo.countTotal = 1
	repo.pageErr = errBoom
	if _, _, err := s.ListPage(context.Background(), 1, 10); !errors.Is(err, errBoom) {
		t.Fatalf("page error not propagated: %v", err)
	}
}

func TestHistoryTop_LimitClamp(t *testing.T) {
	repo := &fakeQueryLogRepo{}
	s := &HistoryService{Repo: repo}

	cases := []struct{ in, want int }{
		{0, 10},
		{-3, 10},
		{7, 7},
		{1000, 100},
	}
	for _, tc := range cases {
		items, err := s.Top(context.Background(), tc.in)
		if err != nil || items == nil {
			t.Fatalf("Top(%d) = %#v, %v", tc.in, items, err)
		}
		if repo.topLimit != tc.want {
			t.Fatalf("Top(%d) used limit %d; want %d", tc.in, repo.topLimit, tc.want)
		}
	}

	repo.topErr = errBoom
	if _, err := s.Top(context.Background(), 5); !errors.Is(err, errBoom) {
		t.Fatalf("top error not propagated: %v", err)
	}
}
