package store

import (
	"testing"

	"github.com/promptloom/promptloom/internal/domain"
)

func TestInsertPrepends(t *testing.T) {
	s := New(nil)
	s.Insert(domain.Record{ID: "1"})
	s.Insert(domain.Record{ID: "2"})

	all := s.GetAll()
	if len(all) != 2 {
		t.Fatalf("expected 2 records got %d", len(all))
	}
	if all[0].ID != "2" || all[1].ID != "1" {
		t.Fatalf("expected newest-first order got %s, %s", all[0].ID, all[1].ID)
	}
}

func TestFind(t *testing.T) {
	s := New([]domain.Record{{ID: "a", Title: "alpha"}})

	got, ok := s.Find("a")
	if !ok {
		t.Fatalf("expected to find record a")
	}
	if got.Title != "alpha" {
		t.Fatalf("unexpected record %+v", got)
	}

	if _, ok := s.Find("missing"); ok {
		t.Fatalf("expected missing id to not resolve")
	}
}

func TestReplaceAllSwapsCollection(t *testing.T) {
	s := New([]domain.Record{{ID: "a"}, {ID: "b"}})
	s.ReplaceAll([]domain.Record{{ID: "c"}})

	if s.Len() != 1 {
		t.Fatalf("expected 1 record got %d", s.Len())
	}
	if _, ok := s.Find("a"); ok {
		t.Fatalf("expected old record to be gone")
	}
	if _, ok := s.Find("c"); !ok {
		t.Fatalf("expected new record to be indexed")
	}
}

func TestGetAllReturnsCopy(t *testing.T) {
	s := New([]domain.Record{{ID: "a", Title: "original"}})

	all := s.GetAll()
	all[0].Title = "mutated"

	got, _ := s.Find("a")
	if got.Title != "original" {
		t.Fatalf("store snapshot leaked a mutable reference")
	}
}
