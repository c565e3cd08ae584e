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

package api

import (
	"context"
	"fmt"

	"himo-chat-go/internal/store"
)

// ReportService is the read side used by the reporting tools
type ReportService struct {
	db store.ChatStore
}

func NewReportService(db store.ChatStore) *ReportService {
	return &ReportService{
		db: db,
	}
}

func (s *ReportService) HealthCheck(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	if _, err := s.db.GetUsers(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
