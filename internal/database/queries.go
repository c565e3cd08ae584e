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


package database

const (
	// User queries
	userColumns = `
		id, username, email, password_hash, him_coins, gold_coins,
		registration_date, last_login, total_messages, quests, last_quest_reset,
		last_daily_bonus, subscription_type, subscription_start, subscription_end,
		subscription_active`

	queryUpsertUser = `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			email = excluded.email,
			password_hash = excluded.password_hash,
			him_coins = excluded.him_coins,
			gold_coins = excluded.gold_coins,
			registration_date = excluded.registration_date,
			last_login = excluded.last_login,
			total_messages = excluded.total_messages,
			quests = excluded.quests,
			last_quest_reset = excluded.last_quest_reset,
			last_daily_bonus = excluded.last_daily_bonus,
			subscription_type = excluded.subscription_type,
			subscription_start = excluded.subscription_start,
			subscription_end = excluded.subscription_end,
			subscription_active = excluded.subscription_active`

	queryGetUsers = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY registration_date, username`

	queryGetUserById = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = ?`

	queryGetUserByUsername = `
		SELECT ` + userColumns + `
		FROM users
		WHERE username = ?`

	queryGetUserByEmail = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = ?`

	queryDeleteAllUsers = `DELETE FROM users`

	// Message queries
	queryInsertMessage = `
		INSERT INTO messages (id, user_id, text, is_bot, timestamp, cost)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`

	queryGetUserMessages = `
		SELECT id, user_id, text, is_bot, timestamp, cost
		FROM messages
		WHERE user_id = ?
		ORDER BY timestamp ASC, rowid ASC`

	queryGetMessageHistory = `
		SELECT id, user_id, text, is_bot, timestamp, cost
		FROM messages
		WHERE user_id = ?
		ORDER BY timestamp DESC, rowid DESC
		LIMIT ? OFFSET ?`

	queryGetUserMessageIds = `
		SELECT id FROM messages WHERE user_id = ?`

	queryDeleteMessage = `
		DELETE FROM messages WHERE id = ?`

	queryDeleteAllMessages = `DELETE FROM messages`

	// Stats queries
	queryGetUserStats = `
		SELECT COUNT(*), COALESCE(SUM(cost), 0), MIN(timestamp), MAX(timestamp)
		FROM messages
		WHERE user_id = ? AND is_bot = 0`
)
