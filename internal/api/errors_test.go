package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505"}
	if !isUniqueViolation(pgErr) {
		t.Fatal("expected 23505 to be a unique violation")
	}
	if !isUniqueViolation(fmt.Errorf("insert failed: %w", pgErr)) {
		t.Fatal("expected wrapped 23505 to be a unique violation")
	}
	if isUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("23503 is not a unique violation")
	}
	if isUniqueViolation(errors.New("plain error")) {
		t.Fatal("plain error is not a unique violation")
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503"}
	if !isForeignKeyViolation(pgErr) {
		t.Fatal("expected 23503 to be a foreign key violation")
	}
	if !isForeignKeyViolation(fmt.Errorf("delete failed: %w", pgErr)) {
		t.Fatal("expected wrapped 23503 to be a foreign key violation")
	}
	if isForeignKeyViolation(&pgconn.PgError{Code: "23505"}) {
		t.Fatal("23505 is not a foreign key violation")
	}
	if isForeignKeyViolation(nil) {
		t.Fatal("nil is not a foreign key violation")
	}
}
