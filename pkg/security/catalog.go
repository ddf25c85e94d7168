// Package security holds the process-wide security configuration: the
// action catalog (allow/block classification of every recognized action)
// and the PII pattern library. Both are loaded once at startup and never
// mutated at runtime.
package security

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PermissionLevel is the per-request capability ceiling attached to every
// authorization request. It is never persisted as state.
type PermissionLevel string

const (
	LevelReadOnly        PermissionLevel = "READ_ONLY"
	LevelDraftOnly       PermissionLevel = "DRAFT_ONLY"
	LevelExecuteApproved PermissionLevel = "EXECUTE_APPROVED"
)

// Valid reports whether l is one of the three recognized levels.
func (l PermissionLevel) Valid() bool {
	switch l {
	case LevelReadOnly, LevelDraftOnly, LevelExecuteApproved:
		return true
	}
	return false
}

// Memory and skill limits.
const (
	HotMemoryTTLDays      = 7
	MaxSkillsPerUser      = 50
	MaxMemoriesPerRequest = 10
)

// Catalog classifies action identifiers. Membership tests only; the
// underlying sets are immutable after construction.
type Catalog struct {
	allowed       map[string]struct{}
	blocked       map[string]struct{}
	readPermitted map[string]struct{}
	writeActions  map[string]struct{}
}

// Default action lists. Anything OS-, network-, or deployment-shaped is
// permanently blocked and must never move to the allow list.
var (
	defaultAllowed = []string{
		"read_memory",
		"write_memory",
		"search_memory",
		"create_skill",
		"update_skill",
		"search_skills",
		"create_note",
		"read_notes",
		"update_note",
		"delete_note",
		"create_task",
		"read_tasks",
		"update_task",
		"complete_task",
		"search_database",
		"query_database",
	}

	defaultBlocked = []string{
		"execute_command",
		"run_shell",
		"system_call",
		"network_request",
		"http_request",
		"api_call_external",
		"deploy",
		"install_package",
		"modify_files",
		"read_credentials",
		"write_credentials",
		"spawn_process",
		"create_thread",
		"schedule_task",
		"cron_job",
		"background_worker",
	}

	// Actions usable under READ_ONLY.
	defaultReadPermitted = []string{
		"read_memory",
		"search_memory",
		"search_skills",
		"read_notes",
		"read_tasks",
		"search_database",
	}

	// Write actions requiring explicit approval under EXECUTE_APPROVED.
	defaultWriteActions = []string{
		"write_memory",
		"create_skill",
		"update_skill",
		"create_note",
		"update_note",
		"delete_note",
		"create_task",
		"update_task",
		"complete_task",
		"query_database",
	}
)

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := newCatalog(defaultAllowed, defaultBlocked, defaultReadPermitted, defaultWriteActions)
	if err != nil {
		// The built-in lists are disjoint; this cannot fail.
		panic(err)
	}
	return c
}

func newCatalog(allowed, blocked, readPermitted, writeActions []string) (*Catalog, error) {
	c := &Catalog{
		allowed:       toSet(allowed),
		blocked:       toSet(blocked),
		readPermitted: toSet(readPermitted),
		writeActions:  toSet(writeActions),
	}
	for action := range c.allowed {
		if _, ok := c.blocked[action]; ok {
			return nil, fmt.Errorf("catalog: action %q is both allowed and blocked", action)
		}
	}
	for action := range c.readPermitted {
		if _, ok := c.allowed[action]; !ok {
			return nil, fmt.Errorf("catalog: read-permitted action %q is not allowed", action)
		}
	}
	for action := range c.writeActions {
		if _, ok := c.allowed[action]; !ok {
			return nil, fmt.Errorf("catalog: write action %q is not allowed", action)
		}
	}
	return c, nil
}

// IsAllowed reports whether action is on the allow list.
func (c *Catalog) IsAllowed(action string) bool {
	_, ok := c.allowed[action]
	return ok
}

// IsBlocked reports whether action is on the permanent block list.
func (c *Catalog) IsBlocked(action string) bool {
	_, ok := c.blocked[action]
	return ok
}

// IsReadPermitted reports whether action is usable under READ_ONLY.
func (c *Catalog) IsReadPermitted(action string) bool {
	_, ok := c.readPermitted[action]
	return ok
}

// IsWriteAction reports whether action requires approval under
// EXECUTE_APPROVED.
func (c *Catalog) IsWriteAction(action string) bool {
	_, ok := c.writeActions[action]
	return ok
}

// catalogFile is the YAML override schema.
type catalogFile struct {
	Allowed       []string `yaml:"allowed"`
	Blocked       []string `yaml:"blocked"`
	ReadPermitted []string `yaml:"read_permitted"`
	WriteActions  []string `yaml:"write_actions"`
}

// LoadCatalog reads a catalog override from a YAML file. Sections left
// empty fall back to the built-in lists. The load rejects any overlap
// between allow and block so blocked action classes cannot be smuggled
// onto the allow list through configuration.
func LoadCatalog(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}

	allowed := file.Allowed
	if len(allowed) == 0 {
		allowed = defaultAllowed
	}
	readPermitted := file.ReadPermitted
	if len(readPermitted) == 0 {
		readPermitted = defaultReadPermitted
	}
	writeActions := file.WriteActions
	if len(writeActions) == 0 {
		writeActions = defaultWriteActions
	}

	// The block list only ever grows; overrides may add entries but the
	// built-in OS/network/deploy classes always remain blocked.
	blocked := append(append([]string{}, defaultBlocked...), file.Blocked...)

	return newCatalog(allowed, blocked, readPermitted, writeActions)
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
