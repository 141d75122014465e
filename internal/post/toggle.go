package post

import (
	"fmt"
	"time"
)

type ReactionAction string

const (
	ActionAdded   ReactionAction = "added"
	ActionRemoved ReactionAction = "removed"
)

type ReactionResult struct {
	Action      ReactionAction `json:"action"`
	Interaction Interaction    `json:"interaction"`
}

// ApplyReaction toggles a like or dislike by actor. The actor is always cleared
// from the opposite list first, so a user is never in both.
func ApplyReaction(p *Post, actor Principal, kind InteractionType, now time.Time) (ReactionResult, error) {
	var target, opposite *[]Interaction
	switch kind {
	case InteractionLike:
		target, opposite = &p.Likes, &p.Dislikes
	case InteractionDislike:
		target, opposite = &p.Dislikes, &p.Likes
	default:
		return ReactionResult{}, fmt.Errorf("%w: unsupported reaction %q", ErrValidation, kind)
	}

	*opposite, _ = removeUser(*opposite, actor.UserID)

	if rest, removed := removeUser(*target, actor.UserID); removed != nil {
		*target = rest
		return ReactionResult{Action: ActionRemoved, Interaction: *removed}, nil
	}

	in := Interaction{
		UserID:          actor.UserID,
		Username:        actor.Username,
		Type:            kind,
		TimeLeftSeconds: TimeLeftSeconds(*p, now),
		CreatedAt:       now,
	}
	*target = append(*target, in)
	return ReactionResult{Action: ActionAdded, Interaction: in}, nil
}

// removeUser returns list without userID's entries, keeping order, plus the
// first removed entry if any.
func removeUser(list []Interaction, userID string) ([]Interaction, *Interaction) {
	var removed *Interaction
	out := make([]Interaction, 0, len(list))
	for i := range list {
		if list[i].UserID == userID {
			if removed == nil {
				r := list[i]
				removed = &r
			}
			continue
		}
		out = append(out, list[i])
	}
	return out, removed
}
