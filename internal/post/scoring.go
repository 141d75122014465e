package post

import "time"

const unknownUser = "unknown"

func Score(p Post) int {
	return len(p.Likes) + len(p.Dislikes)
}

// MostInteresting picks the highest scoring post. Ties go to the earliest post
// in the given order, so callers must pass a deterministic scan order.
func MostInteresting(posts []Post) (Post, int, bool) {
	if len(posts) == 0 {
		return Post{}, 0, false
	}
	best, bestScore := posts[0], Score(posts[0])
	for _, p := range posts[1:] {
		if s := Score(p); s > bestScore {
			best, bestScore = p, s
		}
	}
	return best, bestScore, true
}

func GroupByUser(list []Interaction) map[string]int {
	out := make(map[string]int, len(list))
	for _, in := range list {
		name := in.Username
		if name == "" {
			name = unknownUser
		}
		out[name]++
	}
	return out
}

type Totals struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
	Comments int `json:"comments"`
}

type Grouped struct {
	Likes    map[string]int `json:"likes"`
	Dislikes map[string]int `json:"dislikes"`
	Comments map[string]int `json:"comments"`
}

type InteractionSummary struct {
	Totals  Totals  `json:"totals"`
	Grouped Grouped `json:"grouped"`
}

type CommentView struct {
	UserID          string    `json:"userId"`
	Username        string    `json:"username"`
	Text            string    `json:"text"`
	TimeLeftSeconds int       `json:"timeLeftSeconds"`
	CreatedAt       time.Time `json:"createdAt"`
}

type PostView struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Body         string             `json:"body"`
	Topics       []Topic            `json:"topics"`
	Status       Status             `json:"status"`
	Owner        Principal          `json:"owner"`
	ExpiresAt    time.Time          `json:"expiresAt"`
	CreatedAt    time.Time          `json:"createdAt"`
	Interactions InteractionSummary `json:"interactions"`
	Comments     []CommentView      `json:"comments"`
}

func Project(p Post) PostView {
	comments := make([]CommentView, 0, len(p.Comments))
	for _, c := range p.Comments {
		comments = append(comments, CommentView{
			UserID:          c.UserID,
			Username:        c.Username,
			Text:            c.Value,
			TimeLeftSeconds: c.TimeLeftSeconds,
			CreatedAt:       c.CreatedAt,
		})
	}

	return PostView{
		ID:        p.ID,
		Title:     p.Title,
		Body:      p.Body,
		Topics:    p.Topics,
		Status:    p.Status,
		Owner:     p.Owner,
		ExpiresAt: p.ExpiresAt,
		CreatedAt: p.CreatedAt,
		Interactions: InteractionSummary{
			Totals: Totals{
				Likes:    len(p.Likes),
				Dislikes: len(p.Dislikes),
				Comments: len(p.Comments),
			},
			Grouped: Grouped{
				Likes:    GroupByUser(p.Likes),
				Dislikes: GroupByUser(p.Dislikes),
				Comments: GroupByUser(p.Comments),
			},
		},
		Comments: comments,
	}
}
