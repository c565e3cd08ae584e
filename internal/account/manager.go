/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package account handles sign-up and sign-in against the profile store.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"himo-chat-go/internal/economy"
	"himo-chat-go/internal/models"
	"himo-chat-go/internal/store"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Manager struct {
	store    store.ChatStore
	engine   *economy.Engine
	hasher   PasswordHasher
	validate *validator.Validate
}

type ManagerOption func(*Manager)

// WithHasher replaces the default bcrypt hasher
func WithHasher(h PasswordHasher) ManagerOption {
	return func(m *Manager) {
		m.hasher = h
	}
}

func NewManager(s store.ChatStore, engine *economy.Engine, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:    s,
		engine:   engine,
		hasher:   NewBcryptHasher(0),
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register validates the form, checks username and email uniqueness and
// persists a new profile with the starting balance and a fresh quest batch.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) (*models.UserProfile, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if err := validateForm(m.validate, req); err != nil {
		return nil, err
	}

	if err := m.ensureAvailable(ctx, req.Username, req.Email); err != nil {
		return nil, err
	}

	hash, err := m.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := m.engine.Now()
	user := &models.UserProfile{
		Id:               uuid.New().String(),
		Username:         req.Username,
		Email:            req.Email,
		PasswordHash:     hash,
		HimCoins:         m.engine.StartingHimCoins(),
		GoldCoins:        0,
		RegistrationDate: now,
		LastLogin:        now,
		Quests:           m.engine.GenerateQuests(),
		LastQuestReset:   now,
		Subscription:     models.Subscription{Type: models.SubscriptionNone, Active: false},
	}

	if err := m.store.SaveUser(ctx, user); err != nil {
		// Lost a race against a concurrent registration.
		if errors.Is(err, store.ErrDuplicateUser) {
			return nil, fieldError(store.ErrDuplicateUser, "username", "user already exists")
		}
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	zap.L().Info("Registered user",
		zap.String("user_id", user.Id),
		zap.String("username", user.Username))
	return user, nil
}

func (m *Manager) ensureAvailable(ctx context.Context, username, email string) error {
	if _, err := m.store.GetUserByUsername(ctx, username); err == nil {
		return fieldError(store.ErrDuplicateUser, "username", "user already exists")
	} else if !errors.Is(err, store.ErrUserNotFound) {
		return fmt.Errorf("failed to look up username: %w", err)
	}

	if _, err := m.store.GetUserByEmail(ctx, email); err == nil {
		return fieldError(store.ErrDuplicateUser, "email", "email already registered")
	} else if !errors.Is(err, store.ErrUserNotFound) {
		return fmt.Errorf("failed to look up email: %w", err)
	}
	return nil
}

// Login authenticates by username. Profiles stored without a password hash
// are accepted on username alone.
func (m *Manager) Login(ctx context.Context, req LoginRequest) (*models.UserProfile, error) {
	req.Username = strings.TrimSpace(req.Username)

	if err := validateForm(m.validate, req); err != nil {
		return nil, err
	}

	user, err := m.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, fieldError(store.ErrUserNotFound, "username", "user not found")
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if user.PasswordHash != "" {
		if err := m.hasher.Compare(user.PasswordHash, req.Password); err != nil {
			zap.L().Warn("Rejected login", zap.String("username", req.Username))
			return nil, fieldError(ErrInvalidCredentials, "password", "incorrect password")
		}
	}

	user.LastLogin = m.engine.Now()
	if err := m.store.SaveUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}

	zap.L().Info("User logged in",
		zap.String("user_id", user.Id),
		zap.String("username", user.Username))
	return user, nil
}

// CreateUser stores a profile for the given credentials without the
// confirmation step. Used by the seeding and registration tools.
func (m *Manager) CreateUser(ctx context.Context, username, email, password string) (*models.UserProfile, error) {
	return m.Register(ctx, RegisterRequest{
		Username:        username,
		Email:           email,
		Password:        password,
		ConfirmPassword: password,
	})
}
