package economy

import (
	"fmt"

	"himo-chat-go/internal/models"
)

// GenerateQuests builds a fresh batch from the catalog templates
func (e *Engine) GenerateQuests() []models.Quest {
	quests := make([]models.Quest, 0, len(e.catalog.Quests))
	for _, t := range e.catalog.Quests {
		quests = append(quests, models.Quest{
			Id:          t.Id,
			Title:       t.Title,
			Description: t.Description,
			Target:      t.Target,
			Reward:      t.Reward,
		})
	}
	return quests
}

func (e *Engine) NeedsQuestReset(user models.UserProfile) bool {
	return e.Now().Sub(user.LastQuestReset) >= e.questResetInterval
}

// ResetQuestsIfStale replaces the quest list wholesale once the reset
// interval has elapsed. Progress on the old batch is discarded.
func (e *Engine) ResetQuestsIfStale(user models.UserProfile) models.UserProfile {
	next := user.Clone()
	if !e.NeedsQuestReset(user) {
		return next
	}
	next.Quests = e.GenerateQuests()
	next.LastQuestReset = e.Now()
	return next
}

// AdvanceQuestProgress counts one user-sent message
func (e *Engine) AdvanceQuestProgress(user models.UserProfile) models.UserProfile {
	next := user.Clone()
	for i := range next.Quests {
		q := &next.Quests[i]
		if q.Completed {
			continue
		}
		if q.Progress < q.Target {
			q.Progress++
		}
		q.Completed = q.Progress >= q.Target
	}
	next.TotalMessages++
	return next
}

// ClaimQuestReward pays out a completed quest and removes it from the list.
// On error the returned profile equals the input.
func (e *Engine) ClaimQuestReward(user models.UserProfile, questId string) (models.UserProfile, error) {
	next := user.Clone()
	idx := next.FindQuest(questId)
	if idx < 0 {
		return next, fmt.Errorf("%w: %s", ErrQuestNotFound, questId)
	}

	quest := next.Quests[idx]
	if !quest.Completed {
		return next, fmt.Errorf("%w: %s (%d/%d)", ErrQuestNotComplete, questId, quest.Progress, quest.Target)
	}

	next.HimCoins += quest.Reward.HimCoins
	next.GoldCoins += quest.Reward.GoldCoins
	next.Quests = append(next.Quests[:idx], next.Quests[idx+1:]...)
	return next, nil
}
