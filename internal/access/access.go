// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

// Package access implements the layered access-control evaluator:
// per-user rules, group membership, and global rules, each parsed from
// flat text files under the data root and re-read on every evaluation,
// so operator edits take effect without a restart.
//
// Rule syntax per line is "<subject> <access> <target>", where access is
// any subset of the characters r/w/d concatenated, and target is matched
// as a path prefix after both sides are normalised to start with "/".
package access

import (
	"bufio"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/keyward/keyward/internal/platform/store"
)

const (
	globalRulesPath = ".access"
	groupFilePath   = ".group"
)

// Level is a single access level: read, write, or delete.
type Level byte

const (
	LevelRead   Level = 'r'
	LevelWrite  Level = 'w'
	LevelDelete Level = 'd'
)

// Rule is a single parsed (subject, access, target) line.
type Rule struct {
	Subject string
	Access  string
	Target  string
}

// Matches reports whether level is granted by this rule for path. Both
// path and the rule's target are normalised to a leading "/" before the
// prefix comparison; a target ending in "/" only matches under that
// directory, while a bare target also matches the path equal to it.
func (r Rule) Matches(path string, level Level) bool {
	if !strings.ContainsRune(r.Access, rune(level)) {
		return false
	}
	return pathHasPrefix(normalizePath(path), normalizePath(r.Target))
}

func normalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}

func pathHasPrefix(path, target string) bool {
	if strings.HasSuffix(target, "/") {
		return strings.HasPrefix(path, target)
	}
	if path == target {
		return true
	}
	return strings.HasPrefix(path, target+"/")
}

// Info is the projection returned for GET /auth/access/info.
type Info struct {
	UserAccess  []Rule   `json:"userAccess"`
	GroupRules  []Rule   `json:"groupRules"`
	GlobalRules []Rule   `json:"globalRules"`
	Groups      []string `json:"groups"`
}

// caseFolder performs Unicode-aware case folding when comparing .group
// member tokens against a username. The storage identity of a username
// stays case-sensitive; the fold only smooths over a .group file authored
// with different casing, since membership text is free-form operator
// input, not a validated username.
var caseFolder = cases.Fold(cases.HandleFinalSigma(false))

func foldEqual(a, b string) bool {
	return caseFolder.String(a) == caseFolder.String(b)
}

// Evaluator reads per-user, group, and global rule files from a [*store.Store].
type Evaluator struct {
	store *store.Store
}

// New constructs an Evaluator rooted at s.
func New(s *store.Store) *Evaluator {
	return &Evaluator{store: s}
}

// Check decides whether username may act on path at level: per-user rules
// first, then global rules whose subject is a group the user belongs to,
// then global rules whose subject is "*". The first matching grant wins;
// no rule source can revoke what an earlier one granted.
func (e *Evaluator) Check(username, userAccessPath, path string, level Level) (bool, error) {
	userRules, err := e.parseRulesFile(userAccessPath)
	if err != nil {
		return false, err
	}
	for _, rule := range userRules {
		if rule.Matches(path, level) {
			return true, nil
		}
	}

	globalRules, err := e.parseRulesFile(globalRulesPath)
	if err != nil {
		return false, err
	}

	groups, err := e.groupsFor(username)
	if err != nil {
		return false, err
	}
	groupSet := make(map[string]bool, len(groups))
	for _, g := range groups {
		groupSet[g] = true
	}

	for _, rule := range globalRules {
		if groupSet[rule.Subject] && rule.Matches(path, level) {
			return true, nil
		}
	}

	for _, rule := range globalRules {
		if rule.Subject == "*" && rule.Matches(path, level) {
			return true, nil
		}
	}

	return false, nil
}

// Info returns the full rule summary behind the /auth/access/info
// endpoint: the user's own rules, the group and global rules that apply,
// and the resolved group list.
func (e *Evaluator) Info(username, userAccessPath string) (Info, error) {
	userRules, err := e.parseRulesFile(userAccessPath)
	if err != nil {
		return Info{}, err
	}

	globalRules, err := e.parseRulesFile(globalRulesPath)
	if err != nil {
		return Info{}, err
	}

	groups, err := e.groupsFor(username)
	if err != nil {
		return Info{}, err
	}
	groupSet := make(map[string]bool, len(groups))
	for _, g := range groups {
		groupSet[g] = true
	}

	var groupRules, topLevelGlobal []Rule
	for _, rule := range globalRules {
		switch {
		case groupSet[rule.Subject]:
			groupRules = append(groupRules, rule)
		case rule.Subject == "*":
			topLevelGlobal = append(topLevelGlobal, rule)
		}
	}

	sort.Strings(groups)

	return Info{
		UserAccess:  userRules,
		GroupRules:  groupRules,
		GlobalRules: topLevelGlobal,
		Groups:      groups,
	}, nil
}

// membership is one parsed line of the .group file: a group name and its
// member tokens, which are usernames or ".group" references.
type membership struct {
	name    string
	members []string
}

// groupsFor resolves every group username is a direct or ".group"-indirect
// member of. Indirection through another ".group" reference is resolved
// exactly one level deep — a group listing another group listing a third
// group does not transitively include username.
func (e *Evaluator) groupsFor(username string) ([]string, error) {
	lines, err := e.readLines(groupFilePath)
	if err != nil {
		return nil, err
	}

	var all []membership
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		all = append(all, membership{name: fields[0], members: fields[1:]})
	}

	byName := make(map[string]membership, len(all))
	for _, m := range all {
		byName[m.name] = m
	}

	var groups []string
	for _, m := range all {
		if isMember(m.members, username, byName) {
			groups = append(groups, m.name)
		}
	}
	return groups, nil
}

func isMember(members []string, username string, byName map[string]membership) bool {
	for _, member := range members {
		if strings.HasPrefix(member, ".") {
			ref := byName[strings.TrimPrefix(member, ".")]
			for _, indirect := range ref.members {
				if !strings.HasPrefix(indirect, ".") && foldEqual(indirect, username) {
					return true
				}
			}
			continue
		}
		if foldEqual(member, username) {
			return true
		}
	}
	return false
}

func (e *Evaluator) parseRulesFile(path string) ([]Rule, error) {
	lines, err := e.readLines(path)
	if err != nil {
		return nil, err
	}

	var rules []Rule
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 3 {
			continue
		}
		rules = append(rules, Rule{Subject: fields[0], Access: fields[1], Target: fields[2]})
	}
	return rules, nil
}

// readLines returns every non-empty, non-comment line of the document at
// path, or an empty slice if the document does not exist.
func (e *Evaluator) readLines(path string) ([]string, error) {
	raw, err := e.store.ReadRaw(path)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}

	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
