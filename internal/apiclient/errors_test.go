package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestDescribe(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"plain error", errors.New("boom"), "boom"},
		{"code wins", &Error{Kind: KindServer, Message: "whatever", Code: CodeDuplicateKey}, codeMessages[CodeDuplicateKey]},
		{"foreign key text", &Error{Kind: KindServer, Message: `insert or update on table "correction_request" violates foreign key constraint "fk"`}, codeMessages[CodeForeignKey]},
		{"type mismatch text", &Error{Kind: KindServer, Message: "(psycopg2.errors.UndefinedFunction) operator does not exist: character varying = integer"}, codeMessages[CodeTypeMismatch]},
		{"unknown code falls through", &Error{Kind: KindServer, Message: "Access denied", Code: "nope"}, "Access denied"},
		{"wrapped", fmt.Errorf("screen: %w", &Error{Kind: KindTimeout, Message: TimeoutMessage}), TimeoutMessage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Describe(tc.err); got != tc.want {
				t.Fatalf("Describe = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestTransportErrorClassification(t *testing.T) {
	if e := transportError("x", context.DeadlineExceeded); e.Kind != KindTimeout || e.Message != TimeoutMessage {
		t.Fatalf("deadline = %+v", e)
	}
	if e := transportError("x", errors.New("connection refused")); e.Kind != KindConnectivity || e.Message != ConnectivityMessage {
		t.Fatalf("refused = %+v", e)
	}
	e := transportError("x", context.DeadlineExceeded)
	if !errors.Is(e, context.DeadlineExceeded) {
		t.Fatal("cause should stay reachable through Unwrap")
	}
}

func TestKindSentinels(t *testing.T) {
	err := fmt.Errorf("wrap: %w", &Error{Op: "login", Kind: KindServer, StatusCode: http.StatusUnauthorized, Message: "Token is invalid!"})
	if !errors.Is(err, ErrServer) {
		t.Fatal("expected server kind")
	}
	if errors.Is(err, ErrTimeout) {
		t.Fatal("server error matched timeout")
	}
	if !IsUnauthorized(err) {
		t.Fatal("expected unauthorized")
	}
	if KindTimeout.String() != "timeout" || Kind(0).String() != "unknown" {
		t.Fatal("kind names")
	}
}
