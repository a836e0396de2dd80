// Package btt drives BetterTouchTool on macOS through its two scripting
// surfaces: the btt:// URL scheme for mutations and AppleScript for queries.
package btt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os/exec"
	"sort"
	"strings"

	"github.com/aidanlowrie/MCP-Servers/internal/apperr"
)

// Execer runs an external command and returns its stdout. Abstracted so
// tests never spawn real processes.
type Execer interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("btt: %s: %w", name, err)
	}
	return out, nil
}

// Commander sends commands to BetterTouchTool. A non-empty shared secret is
// appended to every URL, matching BTT's "require shared secret" setting.
type Commander struct {
	secret string
	exec   Execer
}

// NewCommander creates a Commander using the real exec runner.
func NewCommander(secret string) *Commander {
	return &Commander{secret: secret, exec: execRunner{}}
}

// NewCommanderWithExecer creates a Commander with a custom runner, for tests.
func NewCommanderWithExecer(secret string, e Execer) *Commander {
	return &Commander{secret: secret, exec: e}
}

// BuildURL forms a btt://{function}/? URL with percent-encoded parameters.
// Keys are emitted in sorted order so URLs are deterministic.
func (c *Commander) BuildURL(function string, params map[string]string) string {
	all := make(map[string]string, len(params)+1)
	for k, v := range params {
		all[k] = v
	}
	if c.secret != "" {
		all["shared_secret"] = c.secret
	}

	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		// BTT wants %20 for spaces, not '+'.
		escaped := strings.ReplaceAll(url.QueryEscape(all[k]), "+", "%20")
		pairs = append(pairs, k+"="+escaped)
	}
	return "btt://" + function + "/?" + strings.Join(pairs, "&")
}

// open invokes the URL through the macOS open command.
func (c *Commander) open(ctx context.Context, rawURL string) error {
	_, err := c.exec.Run(ctx, "open", rawURL)
	return err
}

// AddTrigger creates a new trigger from its full JSON definition.
func (c *Commander) AddTrigger(ctx context.Context, triggerJSON string) error {
	if !json.Valid([]byte(triggerJSON)) {
		return fmt.Errorf("btt: trigger definition: %w", apperr.ErrInvalidInput)
	}
	return c.open(ctx, c.BuildURL("add_new_trigger", map[string]string{"json": triggerJSON}))
}

// UpdateTrigger patches an existing trigger identified by UUID.
func (c *Commander) UpdateTrigger(ctx context.Context, uuid, patchJSON string) error {
	if strings.TrimSpace(uuid) == "" {
		return fmt.Errorf("btt: uuid is required: %w", apperr.ErrInvalidInput)
	}
	if !json.Valid([]byte(patchJSON)) {
		return fmt.Errorf("btt: trigger patch: %w", apperr.ErrInvalidInput)
	}
	return c.open(ctx, c.BuildURL("update_trigger", map[string]string{
		"uuid": uuid,
		"json": patchJSON,
	}))
}

// DeleteTrigger removes a trigger by UUID.
func (c *Commander) DeleteTrigger(ctx context.Context, uuid string) error {
	if strings.TrimSpace(uuid) == "" {
		return fmt.Errorf("btt: uuid is required: %w", apperr.ErrInvalidInput)
	}
	return c.open(ctx, c.BuildURL("delete_trigger", map[string]string{"uuid": uuid}))
}

// Trigger is one BTT trigger definition. BTT returns arbitrary keys; only
// the ones the bridge filters or displays are typed.
type Trigger map[string]any

// BundleID returns the app bundle the trigger is scoped to, if any.
func (t Trigger) BundleID() string {
	s, _ := t["BTTAppBundleIdentifier"].(string)
	return s
}

// ListTriggers queries the full trigger list over AppleScript. When
// bundleID is non-empty the list is filtered to that app; BTT has no
// server-side filter, so this happens client-side.
func (c *Commander) ListTriggers(ctx context.Context, bundleID string) ([]Trigger, error) {
	out, err := c.exec.Run(ctx, "osascript", "-e", `tell application "BetterTouchTool" to get_triggers`)
	if err != nil {
		return nil, fmt.Errorf("btt: list triggers: %w: %v", apperr.ErrUpstream, err)
	}

	var triggers []Trigger
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(out))), &triggers); err != nil {
		return nil, fmt.Errorf("btt: decode trigger list: %w: %v", apperr.ErrUpstream, err)
	}
	if bundleID == "" {
		return triggers, nil
	}

	filtered := triggers[:0]
	for _, t := range triggers {
		if t.BundleID() == bundleID {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}
