package social

// Activity counts what a user has done on the platform.
type Activity struct {
	Votes     int `json:"votes"`
	Posts     int `json:"posts"`
	Followers int `json:"followers"`
}

type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	unlocked    func(Activity) bool
}

type BadgeStatus struct {
	Badge
	Unlocked bool `json:"unlocked"`
}

var Badges = []Badge{
	{
		ID:          "first-vote",
		Name:        "First Vote",
		Icon:        "🗳️",
		Description: "Cast your first vote",
		unlocked:    func(a Activity) bool { return a.Votes >= 1 },
	},
	{
		ID:          "engaged-citizen",
		Name:        "Engaged Citizen",
		Icon:        "🌟",
		Description: "Create 5 posts",
		unlocked:    func(a Activity) bool { return a.Posts >= 5 },
	},
	{
		ID:          "community-leader",
		Name:        "Community Leader",
		Icon:        "👑",
		Description: "Get 100 followers",
		unlocked:    func(a Activity) bool { return a.Followers >= 100 },
	},
}

// Evaluate reports every badge and whether a has unlocked it.
func Evaluate(a Activity) []BadgeStatus {
	out := make([]BadgeStatus, len(Badges))
	for i, b := range Badges {
		out[i] = BadgeStatus{Badge: b, Unlocked: b.unlocked(a)}
	}
	return out
}
