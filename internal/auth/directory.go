// Vigilo - Perimeter Surveillance Pipeline
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilo

package auth

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Principal identifies an authenticated party: a human user or a
// service in the pipeline.
type Principal struct {
	Name           string
	Role           string
	ServiceAccount bool
}

// Directory resolves principals for the token authority.
type Directory interface {
	// AuthenticateUser verifies username/password and returns the
	// principal, or ErrInvalidCredentials. Unknown user and wrong
	// password are indistinguishable to the caller.
	AuthenticateUser(username, password string) (*Principal, error)

	// LookupService returns the service principal by name, or
	// ErrUnknownService.
	LookupService(name string) (*Principal, error)
}

// UserSeed declares one user for the static directory. Password is
// plaintext at configuration time and hashed on load.
type UserSeed struct {
	Username string
	Password string
	Role     string
}

// StaticDirectory is a config-backed directory. Passwords are bcrypt
// hashed at construction; plaintext is not retained.
type StaticDirectory struct {
	mu       sync.RWMutex
	users    map[string]staticUser
	services map[string]struct{}
}

type staticUser struct {
	passwordHash []byte
	role         string
}

// NewStaticDirectory builds a directory from user seeds and service
// principal names. Services all carry the service role.
func NewStaticDirectory(users []UserSeed, services []string) (*StaticDirectory, error) {
	d := &StaticDirectory{
		users:    make(map[string]staticUser, len(users)),
		services: make(map[string]struct{}, len(services)),
	}

	for _, u := range users {
		if u.Username == "" || u.Password == "" || u.Role == "" {
			return nil, fmt.Errorf("user seed requires username, password, and role")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password for %s: %w", u.Username, err)
		}
		d.users[u.Username] = staticUser{passwordHash: hash, role: u.Role}
	}

	for _, name := range services {
		if name == "" {
			continue
		}
		d.services[name] = struct{}{}
	}

	return d, nil
}

// AuthenticateUser verifies credentials against the bcrypt hash.
func (d *StaticDirectory) AuthenticateUser(username, password string) (*Principal, error) {
	d.mu.RLock()
	user, ok := d.users[username]
	d.mu.RUnlock()

	if !ok {
		// Burn a bcrypt comparison anyway so unknown users cost the
		// same as wrong passwords.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(user.passwordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &Principal{Name: username, Role: user.role}, nil
}

// LookupService resolves a service principal.
func (d *StaticDirectory) LookupService(name string) (*Principal, error) {
	d.mu.RLock()
	_, ok := d.services[name]
	d.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, name)
	}
	return &Principal{Name: name, Role: "service", ServiceAccount: true}, nil
}

// dummyHash is a valid bcrypt hash of an unguessable string, used to
// equalize timing for unknown usernames.
var dummyHash = func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("vigilo-timing-equalizer"), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	return h
}()
