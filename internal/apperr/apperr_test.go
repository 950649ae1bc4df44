package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeOfAndStatus(t *testing.T) {
	cases := []struct {
		err    error
		code   Code
		status int
	}{
		{New(CodeValidation, "bad input"), CodeValidation, http.StatusBadRequest},
		{New(CodeNotFound, "missing"), CodeNotFound, http.StatusNotFound},
		{New(CodeInvalidState, "conflict"), CodeInvalidState, http.StatusConflict},
		{New(CodeUnauthorized, "nope"), CodeUnauthorized, http.StatusUnauthorized},
		{New(CodeForbidden, "nope"), CodeForbidden, http.StatusForbidden},
		{Wrap(CodePersistence, "db", errors.New("boom")), CodePersistence, http.StatusInternalServerError},
		{errors.New("plain"), CodeInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := CodeOf(tc.err); got != tc.code {
			t.Errorf("CodeOf(%v) = %s, want %s", tc.err, got, tc.code)
		}
		if got := HTTPStatus(tc.err); got != tc.status {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.status)
		}
	}
}

func TestWrapPreservesChain(t *testing.T) {
	inner := errors.New("connection refused")
	err := Wrap(CodePersistence, "failed to load job", inner)

	if !errors.Is(err, inner) {
		t.Fatal("wrapped error lost its cause")
	}
	if !Is(err, CodePersistence) {
		t.Fatal("Is should match the carried code")
	}
	if Is(err, CodeNotFound) {
		t.Fatal("Is matched the wrong code")
	}
	// Wrapping again with fmt keeps the code reachable.
	outer := fmt.Errorf("handler: %w", err)
	if CodeOf(outer) != CodePersistence {
		t.Fatalf("CodeOf through fmt wrap = %s", CodeOf(outer))
	}
}

func TestMessageOfNeverLeaksRawErrors(t *testing.T) {
	raw := errors.New("pq: duplicate key value violates unique constraint")
	if got := MessageOf(raw); got != "internal server error" {
		t.Fatalf("MessageOf(raw) = %q, leaked database detail", got)
	}
	wrapped := Wrap(CodePersistence, "failed to save offer", raw)
	if got := MessageOf(wrapped); got != "failed to save offer" {
		t.Fatalf("MessageOf(wrapped) = %q", got)
	}
}
