package services

import "time"

// Level is a named point threshold on the garden progression ladder.
type Level struct {
	Name      string `json:"name"`
	MinPoints int    `json:"min_points"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
}

var levels = []Level{
	{Name: "برعم ناشئ", MinPoints: 0, Icon: "potted_plant", Color: "#13ec5b"},
	{Name: "شتلة نشيطة", MinPoints: 500, Icon: "energy_savings_leaf", Color: "#0ea641"},
	{Name: "شجيرة واعدة", MinPoints: 1500, Icon: "eco", Color: "#0b8a36"},
	{Name: "بستاني محترف", MinPoints: 3000, Icon: "psychology_alt", Color: "#ffd700"},
}

// Levels returns the progression ladder, lowest threshold first.
func Levels() []Level {
	out := make([]Level, len(levels))
	copy(out, levels)
	return out
}

// LevelFor returns the highest level whose threshold the point total meets.
func LevelFor(points int) Level {
	current := levels[0]
	for _, l := range levels {
		if points >= l.MinPoints {
			current = l
		}
	}
	return current
}

// ComputeStreak counts consecutive active days ending at today or yesterday.
// days must be ascending "YYYY-MM-DD" strings of days with at least one
// completed task; a gap before today only breaks the streak once it exceeds
// one day, so a student keeps yesterday's streak until today is over.
func ComputeStreak(days []string, today string) int {
	if len(days) == 0 {
		return 0
	}

	active := make(map[string]struct{}, len(days))
	for _, d := range days {
		active[d] = struct{}{}
	}

	t, err := time.Parse("2006-01-02", today)
	if err != nil {
		return 0
	}

	cursor := t
	if _, ok := active[today]; !ok {
		cursor = t.AddDate(0, 0, -1)
	}

	streak := 0
	for {
		day := cursor.Format("2006-01-02")
		if _, ok := active[day]; !ok {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}
