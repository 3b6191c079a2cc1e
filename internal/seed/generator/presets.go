package generator

// Preset defines a named configuration for social graph generation.
type Preset string

const (
	// PresetDemo creates a small, readable graph for local development.
	PresetDemo Preset = "demo"

	// PresetNetworkHeavy creates a densely connected follow graph.
	PresetNetworkHeavy Preset = "network-heavy"

	// PresetStressTest creates many users with light activity for load testing.
	PresetStressTest Preset = "stress-test"
)

// PresetConfig holds the generation parameters for a preset.
type PresetConfig struct {
	// Number of users to generate
	Users int

	// Chance in percent that one user follows another given user
	FollowPercent int

	// Posts per user (min, max)
	PostsMin int
	PostsMax int

	// Chance in percent that a post replies to an earlier post
	ReplyPercent int

	// Chance in percent that a user likes a given post by someone else
	LikePercent int
}

// GetPresetConfig returns the configuration for a preset.
func GetPresetConfig(preset Preset) PresetConfig {
	switch preset {
	case PresetDemo:
		return PresetConfig{
			Users:         8,
			FollowPercent: 35,
			PostsMin:      2,
			PostsMax:      5,
			ReplyPercent:  30,
			LikePercent:   25,
		}

	case PresetNetworkHeavy:
		return PresetConfig{
			Users:         25,
			FollowPercent: 60,
			PostsMin:      1,
			PostsMax:      3,
			ReplyPercent:  40,
			LikePercent:   45,
		}

	case PresetStressTest:
		return PresetConfig{
			Users:         200,
			FollowPercent: 5,
			PostsMin:      0,
			PostsMax:      2,
			ReplyPercent:  10,
			LikePercent:   3,
		}

	default:
		return GetPresetConfig(PresetDemo)
	}
}
