package main

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func testPrompter(input string) (*prompter, *bytes.Buffer) {
	var out bytes.Buffer
	return &prompter{
		in:  bufio.NewReader(strings.NewReader(input)),
		out: &out,
		fd:  -1, // never a terminal
	}, &out
}

func TestCredentials_Prompted(t *testing.T) {
	t.Setenv(envTn3Password, "")
	p, out := testPrompter("netops\nsecret\n")

	creds, err := p.credentials("Tn3", "", envTn3Password)
	if err != nil {
		t.Fatalf("credentials() error: %v", err)
	}
	if creds.User != "netops" || creds.Password != "secret" {
		t.Errorf("credentials() = %+v", creds)
	}
	if !strings.Contains(out.String(), "Tn3 Username: ") || !strings.Contains(out.String(), "Tn3 Password: ") {
		t.Errorf("prompts = %q", out.String())
	}
}

func TestCredentials_FlagAndEnv(t *testing.T) {
	t.Setenv(envTn4Password, "from-env")
	p, out := testPrompter("")

	creds, err := p.credentials("Tn4", "admin", envTn4Password)
	if err != nil {
		t.Fatalf("credentials() error: %v", err)
	}
	if creds.User != "admin" || creds.Password != "from-env" {
		t.Errorf("credentials() = %+v", creds)
	}
	if out.Len() != 0 {
		t.Errorf("nothing should be prompted, got %q", out.String())
	}
}

func TestCredentials_EmptyUser(t *testing.T) {
	p, _ := testPrompter("\n")
	if _, err := p.credentials("Tn3", "", envTn3Password); err == nil {
		t.Error("credentials() should reject an empty username")
	}
}
