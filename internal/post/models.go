package post

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Topic string

const (
	TopicPolitics Topic = "Politics"
	TopicHealth   Topic = "Health"
	TopicSport    Topic = "Sport"
	TopicTech     Topic = "Tech"
)

var Topics = []Topic{TopicPolitics, TopicHealth, TopicSport, TopicTech}

func (t Topic) Valid() bool {
	for _, known := range Topics {
		if t == known {
			return true
		}
	}
	return false
}

// ParseTopic validates a raw topic value, typically a query parameter.
func ParseTopic(raw string) (Topic, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: topic is required", ErrValidation)
	}
	t := Topic(raw)
	if !t.Valid() {
		return "", fmt.Errorf("%w: invalid topic: %s", ErrValidation, raw)
	}
	return t, nil
}

type Status string

const (
	StatusLive    Status = "Live"
	StatusExpired Status = "Expired"
)

type InteractionType string

const (
	InteractionLike    InteractionType = "like"
	InteractionDislike InteractionType = "dislike"
	InteractionComment InteractionType = "comment"
)

type Principal struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Interaction is a like, dislike or comment. Value is only set for comments.
type Interaction struct {
	UserID          string          `json:"userId"`
	Username        string          `json:"username"`
	Type            InteractionType `json:"type"`
	Value           string          `json:"value,omitempty"`
	TimeLeftSeconds int             `json:"timeLeftSeconds"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type Post struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Body      string        `json:"body"`
	Topics    []Topic       `json:"topics"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Status    Status        `json:"status"`
	Owner     Principal     `json:"owner"`
	Likes     []Interaction `json:"likes"`
	Dislikes  []Interaction `json:"dislikes"`
	Comments  []Interaction `json:"comments"`
	Version   int64         `json:"-"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func (p Post) HasTopic(t Topic) bool {
	for _, topic := range p.Topics {
		if topic == t {
			return true
		}
	}
	return false
}

type CreateInput struct {
	Title             string
	Body              string
	Topics            []string
	ExpirationMinutes float64
}

type CreateRequest struct {
	Title             string    `json:"title"`
	Topics            TopicList `json:"topics"`
	Body              string    `json:"body"`
	ExpirationMinutes Minutes   `json:"expirationMinutes"`
}

func (r CreateRequest) Input() CreateInput {
	return CreateInput{
		Title:             r.Title,
		Body:              r.Body,
		Topics:            []string(r.Topics),
		ExpirationMinutes: float64(r.ExpirationMinutes),
	}
}

type CommentRequest struct {
	Text string `json:"text"`
}

// TopicList accepts either a JSON array of strings or a single string.
type TopicList []string

func (l *TopicList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var single string
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*l = TopicList{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// Minutes accepts a JSON number or a numeric string.
type Minutes float64

func (m *Minutes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fmt.Errorf("expirationMinutes must be a number: %w", err)
	}
	*m = Minutes(v)
	return nil
}
