package post

import (
	"fmt"
	"strings"
	"time"
)

// AppendComment records a comment by actor. Users may comment any number of times.
func AppendComment(p *Post, actor Principal, text string, now time.Time) (Interaction, error) {
	if strings.TrimSpace(text) == "" {
		return Interaction{}, fmt.Errorf("%w: text is required", ErrValidation)
	}
	in := Interaction{
		UserID:          actor.UserID,
		Username:        actor.Username,
		Type:            InteractionComment,
		Value:           text,
		TimeLeftSeconds: TimeLeftSeconds(*p, now),
		CreatedAt:       now,
	}
	p.Comments = append(p.Comments, in)
	return in, nil
}
