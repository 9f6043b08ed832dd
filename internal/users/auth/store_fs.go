// Copyright (c) 2026 Keyward. All rights reserved.
// Author: dev@keyward.io

package auth

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/keyward/keyward/internal/platform/constants"
	"github.com/keyward/keyward/internal/platform/sec"
	"github.com/keyward/keyward/internal/platform/store"
	"github.com/keyward/keyward/pkg/slice"
)

// # User Repository

// FSUserRepository persists [User] documents under the sharded path layout
// ShardDir/InfoPath describe. A presence cache remembers which names have
// been seen on disk, so repeated lookups of a nonexistent user (a
// brute-force username sweep, say) don't each pay a failed read.
type FSUserRepository struct {
	store *store.Store

	mu      sync.RWMutex
	present map[string]bool
}

// NewFSUserRepository returns a [UserRepository] rooted at s.
func NewFSUserRepository(s *store.Store) *FSUserRepository {
	return &FSUserRepository{store: s, present: make(map[string]bool)}
}

func (r *FSUserRepository) Get(name string) (*User, bool, error) {
	r.mu.RLock()
	known, cached := r.present[name]
	r.mu.RUnlock()
	if cached && !known {
		return nil, false, nil
	}

	var u User
	err := r.store.LoadDocument(InfoPath(name), &u)
	if err == store.ErrNotFound {
		r.markPresence(name, false)
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	r.markPresence(name, true)
	return &u, true, nil
}

func (r *FSUserRepository) Save(user *User) error {
	if !validUsername.MatchString(user.Name) {
		return fmt.Errorf("auth: invalid username %q", user.Name)
	}
	if err := r.store.SaveDocument(InfoPath(user.Name), user); err != nil {
		return err
	}
	r.markPresence(user.Name, true)
	return nil
}

func (r *FSUserRepository) Delete(name string) error {
	if err := r.store.DropDocument(InfoPath(name)); err != nil {
		return err
	}
	r.markPresence(name, false)
	return nil
}

func (r *FSUserRepository) markPresence(name string, exists bool) {
	r.mu.Lock()
	r.present[name] = exists
	r.mu.Unlock()
}

func (r *FSUserRepository) ListNames() ([]string, error) {
	entries, err := r.store.Walk("users")
	if err != nil {
		return nil, err
	}

	infoFiles := slice.Filter(entries, func(e store.Entry) bool {
		return e.IsFile && strings.HasSuffix(e.Path, "/info.json")
	})
	names := slice.Filter(slice.Map(infoFiles, nameFromInfoPath), func(name string) bool {
		return name != ""
	})

	sort.Strings(names)
	return names, nil
}

// nameFromInfoPath extracts the username shard segment from a
// "users/al/ic/alice/info.json"-shaped relative path.
func nameFromInfoPath(e store.Entry) string {
	segments := strings.Split(e.Path, "/")
	if len(segments) < 2 {
		return ""
	}
	return segments[len(segments)-2]
}

// # Token Repository

// tokenEntry is the on-disk shape of one line of a user's tokens.json.
type tokenEntry struct {
	Time      time.Time `json:"time"`
	IsRefresh bool      `json:"isRefresh"`
}

// FSTokenRepository keeps the authoritative token map in memory and mirrors
// each subject's slice of it into that subject's tokens.json. The map is
// rehydrated from disk once at startup via LoadAll; after that, disk is
// written-through on every mutation and never read again.
type FSTokenRepository struct {
	store *store.Store
	users UserRepository

	mu      sync.RWMutex
	records map[string]TokenRecord
}

// NewFSTokenRepository returns a [TokenRepository] rooted at s. users is
// consulted only by LoadAll, to enumerate which subjects have a
// tokens.json worth reading.
func NewFSTokenRepository(s *store.Store, users UserRepository) *FSTokenRepository {
	return &FSTokenRepository{store: s, users: users, records: make(map[string]TokenRecord)}
}

func (r *FSTokenRepository) LoadAll() error {
	names, err := r.users.ListNames()
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, name := range names {
		var entries map[string]tokenEntry
		err := r.store.LoadDocument(TokensPath(name), &entries)
		if err == store.ErrNotFound {
			continue
		}
		if err != nil {
			return err
		}

		for token, entry := range entries {
			r.records[token] = TokenRecord{
				Token:   token,
				Subject: name,
				Expiry:  ttlExpiry(entry),
				Kind:    kindOf(entry.IsRefresh),
			}
		}
	}

	return nil
}

func ttlExpiry(entry tokenEntry) time.Time {
	if entry.IsRefresh {
		return entry.Time.Add(constants.RefreshTokenTTL)
	}
	return entry.Time.Add(constants.AccessTokenTTL)
}

func kindOf(isRefresh bool) TokenKind {
	if isRefresh {
		return KindRefresh
	}
	return KindAccess
}

func (r *FSTokenRepository) Mint(subject string) (TokenPair, error) {
	access, err := sec.RandomToken()
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := sec.RandomToken()
	if err != nil {
		return TokenPair{}, err
	}

	now := time.Now()
	r.mu.Lock()
	r.records[access] = TokenRecord{Token: access, Subject: subject, Expiry: now.Add(constants.AccessTokenTTL), Kind: KindAccess}
	r.records[refresh] = TokenRecord{Token: refresh, Subject: subject, Expiry: now.Add(constants.RefreshTokenTTL), Kind: KindRefresh}
	r.mu.Unlock()

	if err := r.persist(subject); err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:   access,
		RefreshToken:  refresh,
		AccessExpiry:  now.Add(constants.AccessTokenTTL),
		RefreshExpiry: now.Add(constants.RefreshTokenTTL),
	}, nil
}

func (r *FSTokenRepository) Lookup(token string) (TokenRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[token]
	return rec, ok
}

func (r *FSTokenRepository) CheckExpiry(record TokenRecord) (bool, error) {
	if time.Now().Before(record.Expiry) {
		return false, nil
	}
	if err := r.Delete(record.Token); err != nil {
		return true, err
	}
	return true, nil
}

func (r *FSTokenRepository) Delete(token string) error {
	r.mu.Lock()
	rec, ok := r.records[token]
	if !ok {
		r.mu.Unlock()
		return nil
	}
	delete(r.records, token)
	r.mu.Unlock()

	return r.persist(rec.Subject)
}

func (r *FSTokenRepository) ClearSubjectTokens(subject string) error {
	r.mu.Lock()
	for token, rec := range r.records {
		if rec.Subject == subject {
			delete(r.records, token)
		}
	}
	r.mu.Unlock()

	return r.store.DropDocument(TokensPath(subject))
}

// persist rewrites subject's tokens.json from the current in-memory state.
// Must be called without r.mu held.
func (r *FSTokenRepository) persist(subject string) error {
	r.mu.RLock()
	entries := make(map[string]tokenEntry)
	for token, rec := range r.records {
		if rec.Subject != subject {
			continue
		}
		entries[token] = tokenEntry{
			Time:      rec.Expiry.Add(-ttlFor(rec.Kind)),
			IsRefresh: rec.Kind == KindRefresh,
		}
	}
	r.mu.RUnlock()

	if len(entries) == 0 {
		return r.store.DropDocument(TokensPath(subject))
	}
	return r.store.SaveDocument(TokensPath(subject), entries)
}

func ttlFor(kind TokenKind) time.Duration {
	if kind == KindRefresh {
		return constants.RefreshTokenTTL
	}
	return constants.AccessTokenTTL
}

// # Rotation Registry

// rotationNode is one entry of the chain map: the subject who owns the
// refresh token, when it was minted, and the token it replaced, if any.
type rotationNode struct {
	Subject   string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	Previous  *string   `json:"previousToken"`
}

const rotationSnapshotPath = ".token-rotation-registry"

// FSRotationRegistry tracks the singly-linked replacement chain of every
// refresh token, independent of the token's own expiry bookkeeping in
// [FSTokenRepository]. The whole map lives in memory and is snapshotted to
// a single document on every mutation.
type FSRotationRegistry struct {
	store *store.Store

	mu    sync.Mutex
	nodes map[string]rotationNode
}

// NewFSRotationRegistry returns a [RotationRegistry] rooted at s.
func NewFSRotationRegistry(s *store.Store) *FSRotationRegistry {
	return &FSRotationRegistry{store: s, nodes: make(map[string]rotationNode)}
}

func (r *FSRotationRegistry) Load() error {
	var snapshot map[string]rotationNode
	err := r.store.LoadDocument(rotationSnapshotPath, &snapshot)
	if err == store.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}

	r.mu.Lock()
	if snapshot != nil {
		r.nodes = snapshot
	}
	r.mu.Unlock()
	return nil
}

func (r *FSRotationRegistry) Register(token, subject string, previous *string) error {
	r.mu.Lock()
	r.nodes[token] = rotationNode{Subject: subject, CreatedAt: time.Now(), Previous: previous}
	r.mu.Unlock()
	return r.Snapshot()
}

func (r *FSRotationRegistry) Validate(token, subject string) (bool, error) {
	r.mu.Lock()
	node, ok := r.nodes[token]
	if !ok {
		r.mu.Unlock()
		return false, nil
	}
	if node.Subject != subject {
		r.mu.Unlock()
		return false, nil
	}
	expired := time.Since(node.CreatedAt) > constants.RefreshTokenTTL
	if expired {
		delete(r.nodes, token)
	}
	r.mu.Unlock()

	if expired {
		return false, r.Snapshot()
	}
	return true, nil
}

// Invalidate deletes token's node, then follows and deletes its chain of
// predecessors until it reaches a token with no recorded node.
func (r *FSRotationRegistry) Invalidate(token string) error {
	r.mu.Lock()
	current := &token
	for current != nil {
		node, ok := r.nodes[*current]
		if !ok {
			break
		}
		delete(r.nodes, *current)
		current = node.Previous
	}
	r.mu.Unlock()

	return r.Snapshot()
}

func (r *FSRotationRegistry) ClearSubjectTokens(subject string) error {
	r.mu.Lock()
	for token, node := range r.nodes {
		if node.Subject == subject {
			delete(r.nodes, token)
		}
	}
	r.mu.Unlock()
	return r.Snapshot()
}

func (r *FSRotationRegistry) Cleanup() error {
	r.mu.Lock()
	for token, node := range r.nodes {
		if time.Since(node.CreatedAt) > constants.RefreshTokenTTL {
			delete(r.nodes, token)
		}
	}
	r.mu.Unlock()
	return r.Snapshot()
}

func (r *FSRotationRegistry) Snapshot() error {
	r.mu.Lock()
	snapshot := make(map[string]rotationNode, len(r.nodes))
	for k, v := range r.nodes {
		snapshot[k] = v
	}
	r.mu.Unlock()

	if len(snapshot) == 0 {
		return r.store.DropDocument(rotationSnapshotPath)
	}
	return r.store.SaveDocument(rotationSnapshotPath, snapshot)
}
