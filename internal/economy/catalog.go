package economy

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"himo-chat-go/internal/models"

	"gopkg.in/yaml.v2"
)

// QuestTemplate describes one quest of the daily batch
type QuestTemplate struct {
	Id          string        `yaml:"id"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Target      int           `yaml:"target"`
	Reward      models.Reward `yaml:"reward"`
}

// PlanConfig describes a purchasable Him+ plan
type PlanConfig struct {
	Id       string   `yaml:"id"`
	Title    string   `yaml:"title"`
	Price    int64    `yaml:"price"`
	Duration string   `yaml:"duration"`
	Benefits []string `yaml:"benefits"`
	Popular  bool     `yaml:"popular"`
}

// Catalog holds every tunable number of the economy
type Catalog struct {
	StartingHimCoins   int64           `yaml:"starting_him_coins"`
	DailyBonus         int64           `yaml:"daily_bonus"`
	DailyBonusInterval string          `yaml:"daily_bonus_interval"`
	QuestResetInterval string          `yaml:"quest_reset_interval"`
	PricePerBlock      int64           `yaml:"price_per_block"`
	BlockSize          int             `yaml:"block_size"`
	Quests             []QuestTemplate `yaml:"quests"`
	Plans              []PlanConfig    `yaml:"plans"`
}

// DefaultCatalog returns the built-in economy
func DefaultCatalog() *Catalog {
	questReward := models.Reward{HimCoins: 100, GoldCoins: 1}
	plusBenefits := []string{"Unlimited messages to the bot", "Daily bonus of 100 HimCoins", "Priority support"}

	return &Catalog{
		StartingHimCoins:   500,
		DailyBonus:         200,
		DailyBonusInterval: "24h",
		QuestResetInterval: "24h",
		PricePerBlock:      10,
		BlockSize:          1000,
		Quests: []QuestTemplate{
			{Id: "quest1", Title: "Active conversationalist", Description: "Send 5 messages to the bot", Target: 5, Reward: questReward},
			{Id: "quest2", Title: "Curious mind", Description: "Send 15 messages to the bot", Target: 15, Reward: questReward},
			{Id: "quest3", Title: "Chatterbox of the day", Description: "Send 30 messages to the bot", Target: 30, Reward: questReward},
		},
		Plans: []PlanConfig{
			{Id: string(models.SubscriptionThreeDays), Title: "Him+ Start", Price: 10, Duration: "72h", Benefits: plusBenefits},
			{Id: string(models.SubscriptionOneWeek), Title: "Him+ Weekly", Price: 30, Duration: "168h", Popular: true,
				Benefits: append(append([]string{}, plusBenefits...), "Exclusive features")},
			{Id: string(models.SubscriptionOneMonth), Title: "Him+ Monthly", Price: 100, Duration: "720h",
				Benefits: append(append([]string{}, plusBenefits...), "Exclusive features", "Extra quest rewards")},
		},
	}
}

// LoadCatalog reads a YAML catalog on top of the defaults. An empty path
// returns the defaults unchanged.
func LoadCatalog(catalogFile string) (*Catalog, error) {
	catalog := DefaultCatalog()
	if catalogFile == "" {
		return catalog, nil
	}

	var catalogPath string
	if filepath.IsAbs(catalogFile) {
		catalogPath = catalogFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		catalogPath = filepath.Join(wd, catalogFile)
	}

	data, err := os.ReadFile(catalogPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", catalogFile, err)
	}

	if err := yaml.Unmarshal(data, catalog); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", catalogFile, err)
	}

	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", catalogFile, err)
	}
	return catalog, nil
}

// QuestsPerBatch is the size of every generated quest list
const QuestsPerBatch = 3

// Validate checks the catalog for values the engine cannot work with
func (c *Catalog) Validate() error {
	if c.StartingHimCoins < 0 {
		return fmt.Errorf("starting_him_coins cannot be negative")
	}
	if c.DailyBonus < 0 {
		return fmt.Errorf("daily_bonus cannot be negative")
	}
	if c.PricePerBlock <= 0 {
		return fmt.Errorf("price_per_block must be positive")
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("block_size must be positive")
	}
	if _, err := parsePositiveDuration("daily_bonus_interval", c.DailyBonusInterval); err != nil {
		return err
	}
	if _, err := parsePositiveDuration("quest_reset_interval", c.QuestResetInterval); err != nil {
		return err
	}

	if len(c.Quests) != QuestsPerBatch {
		return fmt.Errorf("exactly %d quests are required, got %d", QuestsPerBatch, len(c.Quests))
	}
	seenQuests := make(map[string]bool, len(c.Quests))
	for i, quest := range c.Quests {
		if quest.Id == "" {
			return fmt.Errorf("quest at index %d missing id", i)
		}
		if seenQuests[quest.Id] {
			return fmt.Errorf("duplicate quest id %s", quest.Id)
		}
		seenQuests[quest.Id] = true
		if quest.Target <= 0 {
			return fmt.Errorf("quest %s target must be positive", quest.Id)
		}
		if quest.Reward.HimCoins < 0 || quest.Reward.GoldCoins < 0 {
			return fmt.Errorf("quest %s reward cannot be negative", quest.Id)
		}
	}

	seenPlans := make(map[string]bool, len(c.Plans))
	for i, plan := range c.Plans {
		switch models.SubscriptionType(plan.Id) {
		case models.SubscriptionThreeDays, models.SubscriptionOneWeek, models.SubscriptionOneMonth:
		default:
			return fmt.Errorf("plan at index %d has unsupported id %q", i, plan.Id)
		}
		if seenPlans[plan.Id] {
			return fmt.Errorf("duplicate plan id %s", plan.Id)
		}
		seenPlans[plan.Id] = true
		if plan.Price < 0 {
			return fmt.Errorf("plan %s price cannot be negative", plan.Id)
		}
		if _, err := parsePositiveDuration("plan "+plan.Id+" duration", plan.Duration); err != nil {
			return err
		}
	}

	return nil
}

func parsePositiveDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", name, value)
	}
	return d, nil
}
