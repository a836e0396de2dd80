package btt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aidanlowrie/MCP-Servers/internal/apperr"
)

// fakeExecer records invocations and returns canned output.
type fakeExecer struct {
	calls  [][]string
	output []byte
	err    error
}

func (f *fakeExecer) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.output, f.err
}

func TestBuildURL(t *testing.T) {
	c := NewCommanderWithExecer("", &fakeExecer{})

	got := c.BuildURL("delete_trigger", map[string]string{"uuid": "ABC-123"})
	if got != "btt://delete_trigger/?uuid=ABC-123" {
		t.Errorf("url = %q", got)
	}

	got = c.BuildURL("add_new_trigger", map[string]string{"json": `{"BTTTriggerName":"Hide All"}`})
	if strings.Contains(got, "+") {
		t.Errorf("spaces must be %%20, not '+': %q", got)
	}
	if !strings.Contains(got, "json=%7B%22BTTTriggerName%22%3A%22Hide%20All%22%7D") {
		t.Errorf("json not percent-encoded: %q", got)
	}
}

func TestBuildURLAppendsSecret(t *testing.T) {
	c := NewCommanderWithExecer("s3cret", &fakeExecer{})
	got := c.BuildURL("delete_trigger", map[string]string{"uuid": "X"})
	if got != "btt://delete_trigger/?shared_secret=s3cret&uuid=X" {
		t.Errorf("url = %q", got)
	}
}

func TestAddTriggerOpensURL(t *testing.T) {
	fake := &fakeExecer{}
	c := NewCommanderWithExecer("", fake)

	if err := c.AddTrigger(context.Background(), `{"BTTTriggerType":0}`); err != nil {
		t.Fatalf("AddTrigger: %v", err)
	}
	if len(fake.calls) != 1 || fake.calls[0][0] != "open" {
		t.Fatalf("calls = %v", fake.calls)
	}
	if !strings.HasPrefix(fake.calls[0][1], "btt://add_new_trigger/?json=") {
		t.Errorf("url = %q", fake.calls[0][1])
	}
}

func TestAddTriggerRejectsInvalidJSON(t *testing.T) {
	fake := &fakeExecer{}
	c := NewCommanderWithExecer("", fake)

	err := c.AddTrigger(context.Background(), "{not json")
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
	if len(fake.calls) != 0 {
		t.Error("invalid JSON must not reach BTT")
	}
}

func TestUpdateTriggerRequiresUUID(t *testing.T) {
	c := NewCommanderWithExecer("", &fakeExecer{})
	if err := c.UpdateTrigger(context.Background(), "  ", "{}"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestListTriggersFiltersByBundle(t *testing.T) {
	fake := &fakeExecer{output: []byte(`[
		{"BTTTriggerName": "one", "BTTAppBundleIdentifier": "com.apple.Safari"},
		{"BTTTriggerName": "two"},
		{"BTTTriggerName": "three", "BTTAppBundleIdentifier": "com.apple.Safari"}
	]`)}
	c := NewCommanderWithExecer("", fake)

	all, err := c.ListTriggers(context.Background(), "")
	if err != nil {
		t.Fatalf("ListTriggers: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all = %d, want 3", len(all))
	}

	safari, err := c.ListTriggers(context.Background(), "com.apple.Safari")
	if err != nil {
		t.Fatal(err)
	}
	if len(safari) != 2 {
		t.Errorf("filtered = %d, want 2", len(safari))
	}
	if fake.calls[0][0] != "osascript" {
		t.Errorf("command = %v", fake.calls[0])
	}
}

func TestListTriggersUpstreamFailure(t *testing.T) {
	fake := &fakeExecer{err: errors.New("osascript: BetterTouchTool got an error")}
	c := NewCommanderWithExecer("", fake)

	_, err := c.ListTriggers(context.Background(), "")
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
}

func TestListTriggersBadJSON(t *testing.T) {
	fake := &fakeExecer{output: []byte("not json at all")}
	c := NewCommanderWithExecer("", fake)

	_, err := c.ListTriggers(context.Background(), "")
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Errorf("err = %v, want ErrUpstream", err)
	}
}
