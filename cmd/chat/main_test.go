package main

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newScriptedRepl(input string) *repl {
	return &repl{in: bufio.NewScanner(strings.NewReader(input))}
}

func TestRegistrationPromptsForConfirmation(t *testing.T) {
	r := newScriptedRepl("alice@example.com\nsecret1\nsecret2\n")

	req := r.registration("alice", "", "")

	assert.Equal(t, "alice", req.Username)
	assert.Equal(t, "alice@example.com", req.Email)
	assert.Equal(t, "secret1", req.Password)
	assert.Equal(t, "secret2", req.ConfirmPassword, "mismatch reaches validation")
}

func TestRegistrationWithFlagsStillConfirms(t *testing.T) {
	r := newScriptedRepl("  secret1 \n")

	req := r.registration("bob", "bob@example.com", "secret1")

	assert.Equal(t, "bob@example.com", req.Email)
	assert.Equal(t, "secret1", req.ConfirmPassword)
}

func TestRegistrationAtEndOfInput(t *testing.T) {
	r := newScriptedRepl("")

	req := r.registration("carol", "carol@example.com", "secret1")

	assert.Empty(t, req.ConfirmPassword)
}
