package models

import "time"

// DefaultCommunityRank is the rank every new profile starts with
const DefaultCommunityRank = "Beginner Actuarian"

// Profile is the per-user progress row. Role is read from the owning user.
type Profile struct {
	UserID               int64     `db:"user_id" json:"user_id"`
	Username             string    `db:"username" json:"username"`
	FullName             string    `db:"full_name" json:"full_name"`
	AvatarURL            string    `db:"avatar_url" json:"avatar_url"`
	Role                 string    `db:"role" json:"role"`
	RiskCoins            int       `db:"risk_coins" json:"risk_coins"`
	CurrentStreak        int       `db:"current_streak" json:"current_streak"`
	LastActiveOn         string    `db:"last_active_on" json:"last_active_on,omitempty"`
	TotalQuestsCompleted int       `db:"total_quests_completed" json:"total_quests_completed"`
	SandboxScore         int       `db:"sandbox_score" json:"sandbox_score"`
	CommunityRank        string    `db:"community_rank" json:"community_rank"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// rankTiers maps minimum coin balances to rank names, highest first
var rankTiers = []struct {
	minCoins int
	name     string
}{
	{1000, "Chief Risk Officer"},
	{600, "Senior Actuary"},
	{300, "Risk Analyst"},
	{100, "Junior Analyst"},
	{0, DefaultCommunityRank},
}

// RankForCoins returns the community rank earned by a coin balance
func RankForCoins(coins int) string {
	for _, tier := range rankTiers {
		if coins >= tier.minCoins {
			return tier.name
		}
	}
	return DefaultCommunityRank
}

// NextStreak computes the daily streak after activity on today, given the
// streak and last active day (YYYY-MM-DD, UTC) stored on the profile
func NextStreak(current int, lastActiveOn string, today time.Time) int {
	todayKey := today.UTC().Format(DateLayout)
	if lastActiveOn == todayKey {
		if current < 1 {
			return 1
		}
		return current
	}
	if lastActiveOn == today.UTC().AddDate(0, 0, -1).Format(DateLayout) {
		return current + 1
	}
	return 1
}

// DateLayout is the storage format of calendar days
const DateLayout = "2006-01-02"
