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

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"himo-chat-go/internal/account"
	"himo-chat-go/internal/common"
	"himo-chat-go/internal/config"
	"himo-chat-go/internal/economy"
	"himo-chat-go/internal/models"
	"himo-chat-go/internal/session"

	"go.uber.org/zap"
)

const helpText = `Commands:
  /quests          show daily quests
  /claim <id>      claim a completed quest
  /plans           list Him+ subscriptions
  /buy <plan>      buy a subscription with GoldCoins
  /bonus           claim the daily bonus
  /balance         show balances and subscription
  /export <file>   save the chat transcript
  /retry           retry failed saves
  /logout          end the session
  /quit            exit
Anything else is sent to the bot.`

type repl struct {
	controller *session.Controller
	in         *bufio.Scanner
	replyWait  time.Duration
	printed    int
}

func (r *repl) prompt(label string) (string, bool) {
	fmt.Print(label)
	if !r.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(r.in.Text()), true
}

func printFormErrors(err error) {
	var verr *account.ValidationError
	if !errors.As(err, &verr) {
		fmt.Printf("✗ %v\n", err)
		return
	}
	fields := make([]string, 0, len(verr.Fields))
	for field := range verr.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		fmt.Printf("✗ %s: %s\n", field, verr.Fields[field])
	}
}

func (r *repl) authenticate(ctx context.Context, username, email, password string, register bool) bool {
	for {
		if username == "" {
			var ok bool
			if username, ok = r.prompt("Username (empty to quit): "); !ok || username == "" {
				return false
			}
		}

		var err error
		if register {
			_, err = r.controller.Register(ctx, r.registration(username, email, password))
		} else {
			if password == "" {
				password, _ = r.prompt("Password: ")
			}
			_, err = r.controller.Login(ctx, account.LoginRequest{Username: username, Password: password})
		}
		if err == nil {
			r.printed = 0
			r.printBalance()
			r.printNewMessages()
			return true
		}

		printFormErrors(err)
		username, email, password = "", "", ""
	}
}

// registration fills the sign-up form, prompting for what the flags left
// empty. The confirmation is always typed in.
func (r *repl) registration(username, email, password string) account.RegisterRequest {
	if email == "" {
		email, _ = r.prompt("Email: ")
	}
	if password == "" {
		password, _ = r.prompt("Password: ")
	}
	confirm, _ := r.prompt("Confirm password: ")

	return account.RegisterRequest{
		Username:        username,
		Email:           email,
		Password:        password,
		ConfirmPassword: confirm,
	}
}

func (r *repl) printNewMessages() {
	history := r.controller.History()
	for _, msg := range history[min(r.printed, len(history)):] {
		who := "You"
		if msg.IsBot {
			who = "Bot"
		}
		cost := ""
		if msg.Cost != nil {
			cost = fmt.Sprintf("  [-%d]", *msg.Cost)
		}
		fmt.Printf("%s %s: %s%s\n", msg.Timestamp.Local().Format("15:04:05"), who, msg.Text, cost)
	}
	r.printed = len(history)
}

func (r *repl) printBalance() {
	profile, err := r.controller.Profile()
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		return
	}
	fmt.Printf("%s | HimCoins: %d | GoldCoins: %d | Him+: %s\n",
		profile.Username, profile.HimCoins, profile.GoldCoins,
		common.FormatSubscription(profile.Subscription, time.Now()))
}

func (r *repl) printQuests() {
	profile, err := r.controller.Refresh(context.Background())
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		return
	}
	if len(profile.Quests) == 0 {
		fmt.Println("All quests claimed. New quests arrive with the next reset.")
		return
	}
	for i, q := range profile.Quests {
		status := fmt.Sprintf("%d/%d", q.Progress, q.Target)
		if q.Completed {
			status = "done, /claim " + q.Id
		}
		fmt.Printf("%s %-8s %-26s %-20s +%d HimCoins +%d GoldCoins\n",
			common.BoxPrefix(i == len(profile.Quests)-1), q.Id, q.Title, status, q.Reward.HimCoins, q.Reward.GoldCoins)
	}
}

func (r *repl) printPlans() {
	plans := r.controller.Plans()
	for i, plan := range plans {
		isLast := i == len(plans)-1
		fmt.Printf("%s %-7s %-14s %4d GoldCoins, %s\n",
			common.BoxPrefix(isLast), plan.Id, plan.Title, plan.Price, common.FormatRemaining(plan.Duration))
		fmt.Printf("%s   %s\n", common.BoxDetailPrefix(isLast), strings.Join(plan.Benefits, ", "))
	}
}

func (r *repl) export(path string) {
	if path == "" {
		path = "chat-history.txt"
	}
	file, err := os.Create(path)
	if err != nil {
		fmt.Printf("✗ %v\n", err)
		return
	}
	defer file.Close()

	if err := r.controller.ExportTranscript(file); err != nil {
		fmt.Printf("✗ %v\n", err)
		return
	}
	fmt.Printf("✓ Transcript saved to %s\n", path)
}

func (r *repl) send(ctx context.Context, text string) {
	if _, err := r.controller.SendMessage(ctx, text); err != nil {
		switch {
		case errors.Is(err, economy.ErrInsufficientFunds):
			fmt.Println("✗ Not enough HimCoins. Try /bonus, finish a quest or /buy a plan.")
		default:
			fmt.Printf("✗ %v\n", err)
		}
		return
	}

	waitCtx, cancel := context.WithTimeout(ctx, r.replyWait)
	defer cancel()
	if err := r.controller.WaitForReplies(waitCtx); err != nil {
		zap.L().Debug("Bot reply still pending", zap.Error(err))
	}
	r.printNewMessages()
}

// run handles one session; it reports whether the user asked to quit
func (r *repl) run(ctx context.Context) bool {
	for {
		line, ok := r.prompt("> ")
		if !ok {
			return true
		}
		if line == "" {
			continue
		}

		command, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch command {
		case "/help":
			fmt.Println(helpText)
		case "/quests":
			r.printQuests()
		case "/claim":
			if profile, err := r.controller.ClaimQuestReward(ctx, arg); err != nil {
				fmt.Printf("✗ %v\n", err)
			} else {
				fmt.Printf("✓ Quest claimed. HimCoins: %d, GoldCoins: %d\n", profile.HimCoins, profile.GoldCoins)
			}
		case "/plans":
			r.printPlans()
		case "/buy":
			if profile, err := r.controller.PurchaseSubscription(ctx, models.SubscriptionType(arg)); err != nil {
				fmt.Printf("✗ %v\n", err)
			} else {
				fmt.Printf("✓ Him+ active: %s\n", common.FormatSubscription(profile.Subscription, time.Now()))
			}
		case "/bonus":
			if profile, err := r.controller.ClaimDailyBonus(ctx); err != nil {
				fmt.Printf("✗ %v\n", err)
			} else {
				fmt.Printf("✓ Daily bonus claimed. HimCoins: %d\n", profile.HimCoins)
			}
		case "/balance":
			r.printBalance()
		case "/export":
			r.export(arg)
		case "/retry":
			if err := r.controller.Reconcile(ctx); err != nil {
				fmt.Printf("✗ %v\n", err)
			} else {
				fmt.Println("✓ All changes saved")
			}
		case "/logout":
			r.controller.Logout()
			fmt.Println("Logged out.")
			return false
		case "/quit", "/exit":
			return true
		default:
			r.send(ctx, line)
		}
	}
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	userFlag := flag.String("user", "", "Username to log in with")
	passwordFlag := flag.String("password", "", "Password (prompted when empty)")
	registerFlag := flag.Bool("register", false, "Create the account instead of logging in")
	emailFlag := flag.String("email", "", "Email for --register (prompted when empty)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	controller, err := services.NewSession(cfg.Session)
	if err != nil {
		zap.L().Fatal("Failed to create session", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Session.ReplyDelay+cfg.Session.PersistTimeout)
		defer cancel()
		if err := controller.Close(closeCtx); err != nil {
			zap.L().Error("Failed to flush session", zap.Error(err))
		}
	}()

	r := &repl{
		controller: controller,
		in:         bufio.NewScanner(os.Stdin),
		replyWait:  cfg.Session.ReplyDelay + 2*time.Second,
	}

	common.PrintHeader("HIMO CHAT", common.DefaultWidth)
	fmt.Println(helpText)

	username, email, password, register := *userFlag, *emailFlag, *passwordFlag, *registerFlag
	for {
		if !r.authenticate(ctx, username, email, password, register) {
			return
		}
		if quit := r.run(ctx); quit {
			return
		}
		username, email, password, register = "", "", "", false
	}
}
