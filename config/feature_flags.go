package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages feature toggles with gradual rollout. Users are
// assigned to rollout buckets by a consistent hash of their ID, so a
// learner never flips in and out of a feature between requests.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// Per-user overrides, for support and debugging.
	userOverrides map[string]map[string]bool
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100).
	RolloutPercent int
}

// Predefined feature flag names.
const (
	// === Progress & Gamification ===
	FeatureStreakMilestones = "progress.streak_milestones" // Milestone notifications
	FeatureDailyReminders   = "progress.daily_reminders"   // Reminder sweep
	FeatureHearts           = "progress.hearts"            // Hearts/lives mechanic

	// === Leaderboard ===
	FeatureLeaderboardDay   = "leaderboard.day"   // Daily ranking
	FeatureLeaderboardMonth = "leaderboard.month" // Monthly ranking

	// === Community ===
	FeatureCommunityPosts    = "community.posts"    // Community boards
	FeatureDirectMessages    = "community.messages" // Learner-to-learner DMs
	FeatureCommunityDigest   = "community.digest"   // Activity digest
	FeatureSpeakingExercises = "catalog.speaking"   // Speaking exercise type
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureStreakMilestones] = &Feature{
		Name:           FeatureStreakMilestones,
		Description:    "Notify on streak milestones",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureDailyReminders] = &Feature{
		Name:           FeatureDailyReminders,
		Description:    "Daily goal reminder notifications",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureHearts] = &Feature{
		Name:           FeatureHearts,
		Description:    "Hearts mechanic on mistakes",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLeaderboardDay] = &Feature{
		Name:           FeatureLeaderboardDay,
		Description:    "Daily leaderboard range",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureLeaderboardMonth] = &Feature{
		Name:           FeatureLeaderboardMonth,
		Description:    "Monthly leaderboard range",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureCommunityPosts] = &Feature{
		Name:           FeatureCommunityPosts,
		Description:    "Community posting",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureDirectMessages] = &Feature{
		Name:           FeatureDirectMessages,
		Description:    "Direct messages between learners",
		Enabled:        true,
		RolloutPercent: 50, // gradual rollout
	}

	ff.features[FeatureCommunityDigest] = &Feature{
		Name:           FeatureCommunityDigest,
		Description:    "Community activity digest",
		Enabled:        false,
		RolloutPercent: 0,
	}

	ff.features[FeatureSpeakingExercises] = &Feature{
		Name:           FeatureSpeakingExercises,
		Description:    "Speaking exercise type",
		Enabled:        true,
		RolloutPercent: 100,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_COMMUNITY_MESSAGES=75 (75% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envKey := featureNameToEnvKey(name)
		val := os.Getenv(envKey)
		if val == "" {
			continue
		}

		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
			if b {
				feature.RolloutPercent = 100
			} else {
				feature.RolloutPercent = 0
			}
			continue
		}

		if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
			feature.Enabled = p > 0
			feature.RolloutPercent = p
		}
	}
}

// featureNameToEnvKey converts a feature name to its env var key.
// "community.messages" -> "FEATURE_COMMUNITY_MESSAGES"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given user.
// An empty userID evaluates the flag globally (rollout > 0).
func (ff *FeatureFlags) IsEnabled(featureName, userID string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	if userID != "" {
		if overrides, ok := ff.userOverrides[userID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}
	if !feature.Enabled {
		return false
	}

	if feature.RolloutPercent < 100 && userID != "" {
		return isInRollout(userID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// SetOverride forces a feature on or off for a specific user.
func (ff *FeatureFlags) SetOverride(userID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if ff.userOverrides[userID] == nil {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][featureName] = enabled
}

// isInRollout determines if a user falls inside the rollout percentage,
// using consistent hashing so buckets are stable.
func isInRollout(userID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(userID))
	bucket := int(h.Sum32() % 100)
	return bucket < percent
}
