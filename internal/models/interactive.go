package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ElementType is the kind of an interactive element
type ElementType string

const (
	ElementPoll      ElementType = "poll"
	ElementQuestion  ElementType = "question"
	ElementCountdown ElementType = "countdown"
	ElementLink      ElementType = "link"
)

// ParseElementType validates a raw element type.
func ParseElementType(s string) (ElementType, error) {
	switch t := ElementType(s); t {
	case ElementPoll, ElementQuestion, ElementCountdown, ElementLink:
		return t, nil
	default:
		return "", fmt.Errorf("unknown element type %q", s)
	}
}

// InteractiveElement is a widget attached to a story. Data holds the
// type-specific payload as stored.
type InteractiveElement struct {
	ID        string          `json:"id"`
	StoryID   string          `json:"story_id"`
	Type      ElementType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Position  int             `json:"position"`
	CreatedAt time.Time       `json:"created_at"`
}

// InteractiveResponse is one row per (element, viewer); the last response wins.
type InteractiveResponse struct {
	ID        string          `json:"id"`
	ElementID string          `json:"element_id"`
	ViewerID  string          `json:"viewer_id"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PollData is the payload of a poll element
type PollData struct {
	Question string   `json:"question" validate:"required,min=1,max=200"`
	Options  []string `json:"options" validate:"min=2,max=4,unique,dive,required,min=1,max=50"`
}

// QuestionData is the payload of a question element. Placeholder is kept raw
// so that a non-textual value can be rejected instead of silently coerced.
type QuestionData struct {
	Text        string          `json:"text" validate:"required,min=1,max=200"`
	Placeholder json.RawMessage `json:"placeholder,omitempty"`
}

// CountdownData is the payload of a countdown element
type CountdownData struct {
	Title      string `json:"title" validate:"required"`
	TargetDate string `json:"target_date" validate:"required"`
}

// LinkData is the payload of a link element
type LinkData struct {
	URL   string `json:"url" validate:"required"`
	Label string `json:"label,omitempty" validate:"max=50"`
}

// PollResponse selects one of the poll options
type PollResponse struct {
	Option string `json:"option" validate:"required"`
}

// QuestionResponse answers a question element
type QuestionResponse struct {
	Answer string `json:"answer" validate:"required,max=500"`
}

// CountdownResponse subscribes the viewer to a countdown reminder
type CountdownResponse struct {
	Remind bool `json:"remind"`
}

// LinkResponse records a click-through
type LinkResponse struct {
	Clicked bool `json:"clicked"`
}
