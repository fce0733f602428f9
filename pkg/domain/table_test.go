package domain

import (
	"errors"
	"testing"
)

type testUser struct {
	ID     ID     `json:"id"`
	Email  string `json:"email"`
	Status string `json:"status"`
}

func TestTableRoundTripKeepsUnknownFields(t *testing.T) {
	tx := newMapTx("users")
	users := NewTable[testUser]("users", "user")
	if err := tx.Put("users", "1", Record{"id": float64(1), "email": "a@x", "status": "active", "department": "ops"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	u, err := users.Get(tx, "1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.ID != "1" || u.Email != "a@x" {
		t.Fatalf("unexpected decode %+v", u)
	}
	u.Status = "inactive"
	if err := users.Put(tx, "1", u); err != nil {
		t.Fatalf("put: %v", err)
	}
	rec, _ := tx.Get("users", "1")
	if rec["department"] != "ops" || rec["status"] != "inactive" {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestTableErrorsUseEntityLabel(t *testing.T) {
	tx := newMapTx("users")
	users := NewTable[testUser]("users", "user")
	_, err := users.Get(tx, "9")
	var nf ErrNotFound
	if !errors.As(err, &nf) || nf.Entity != "user" {
		t.Fatalf("expected user NotFound, got %v", err)
	}
	if _, ok := users.Find(tx, "9"); ok {
		t.Fatalf("expected Find miss")
	}
	if err := users.Insert(tx, "1", testUser{ID: "1"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err = users.Insert(tx, "1", testUser{ID: "1"})
	var dup ErrAlreadyExists
	if !errors.As(err, &dup) || dup.Entity != "user" {
		t.Fatalf("expected user AlreadyExists, got %v", err)
	}
	if _, err := users.Delete(tx, "2"); !errors.As(err, &nf) {
		t.Fatalf("expected NotFound on delete, got %v", err)
	}
}

func TestTableFilterAndMint(t *testing.T) {
	tx := newMapTx("users")
	users := NewTable[testUser]("users", "user")
	for _, u := range []testUser{{ID: "1", Status: "active"}, {ID: "2", Status: "inactive"}, {ID: "3", Status: "active"}} {
		if err := users.Insert(tx, string(u.ID), u); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	active, err := users.Filter(tx, func(u testUser) bool { return u.Status == "active" })
	if err != nil || len(active) != 2 || active[1].ID != "3" {
		t.Fatalf("unexpected filter result %+v %v", active, err)
	}
	next, err := users.Mint(tx)
	if err != nil || next != "4" {
		t.Fatalf("unexpected mint %q %v", next, err)
	}
}
