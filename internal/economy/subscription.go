package economy

import (
	"fmt"

	"himo-chat-go/internal/models"
)

// Plans lists the purchasable plans in catalog order
func (e *Engine) Plans() []Plan {
	return append([]Plan(nil), e.plans...)
}

func (e *Engine) Plan(planId models.SubscriptionType) (Plan, error) {
	for _, p := range e.plans {
		if p.Id == planId {
			return p, nil
		}
	}
	return Plan{}, fmt.Errorf("%w: %s", ErrUnknownPlan, planId)
}

// PurchaseSubscription pays for a plan in GoldCoins. A purchase made while
// subscribed replaces the current window.
func (e *Engine) PurchaseSubscription(user models.UserProfile, planId models.SubscriptionType) (models.UserProfile, error) {
	next := user.Clone()
	plan, err := e.Plan(planId)
	if err != nil {
		return next, err
	}
	if next.GoldCoins < plan.Price {
		return next, fmt.Errorf("%w: plan %s costs %d GoldCoins, balance is %d",
			ErrInsufficientFunds, plan.Id, plan.Price, next.GoldCoins)
	}

	start := e.Now()
	end := start.Add(plan.Duration)
	next.GoldCoins -= plan.Price
	next.Subscription = models.Subscription{
		Type:      plan.Id,
		StartDate: &start,
		EndDate:   &end,
		Active:    true,
	}
	return next, nil
}

// CheckSubscriptionExpiry demotes an active subscription whose end date has
// passed. An active subscription without an end date is also demoted.
func (e *Engine) CheckSubscriptionExpiry(user models.UserProfile) models.UserProfile {
	next := user.Clone()
	if e.isExpired(next) {
		next.Subscription = models.Subscription{Type: models.SubscriptionNone, Active: false}
	}
	return next
}

func (e *Engine) isExpired(user models.UserProfile) bool {
	sub := user.Subscription
	if !sub.Active {
		return false
	}
	return sub.EndDate == nil || !sub.EndDate.After(e.Now())
}
