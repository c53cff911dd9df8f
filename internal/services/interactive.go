package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/url"
	"reflect"
	"strings"
	"time"

	"story-backend/internal/apperrors"
	"story-backend/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct runs the struct's validate tags and reports the first failure
// as a validation error.
func ValidateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return validationError(err)
	}
	return nil
}

// ElementInput is an interactive element as submitted by a client
type ElementInput struct {
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data"`
	Position int             `json:"position"`
}

// PollOptionResult is the tally of one poll option
type PollOptionResult struct {
	Option     string `json:"option"`
	Votes      int    `json:"votes"`
	Percentage int    `json:"percentage"`
}

// PollResult is the aggregated outcome of a poll
type PollResult struct {
	ElementID  string             `json:"element_id"`
	Question   string             `json:"question"`
	TotalVotes int                `json:"total_votes"`
	Options    []PollOptionResult `json:"options"`
}

func decodePayload(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return apperrors.Validation("element data is required")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return apperrors.Validation("malformed element data: %v", err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return apperrors.Validation("invalid %s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return apperrors.Validation("invalid %s: failed %s", fe.Field(), fe.Tag())
	}
	return apperrors.Validation("%v", err)
}

// ParseTargetDate accepts RFC 3339 timestamps and plain dates
func ParseTargetDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}

// ValidateElement checks an element payload against the rules of its type and
// returns the normalised payload to store.
func ValidateElement(elementType string, data json.RawMessage, now time.Time) (models.ElementType, json.RawMessage, error) {
	t, err := models.ParseElementType(elementType)
	if err != nil {
		return "", nil, apperrors.Wrap(apperrors.KindValidation, apperrors.ErrUnknownElementType,
			"unknown interactive element type %q", elementType)
	}

	var normalised any
	switch t {
	case models.ElementPoll:
		var poll models.PollData
		if err := decodePayload(data, &poll); err != nil {
			return "", nil, err
		}
		poll.Question = strings.TrimSpace(poll.Question)
		for i := range poll.Options {
			poll.Options[i] = strings.TrimSpace(poll.Options[i])
		}
		if err := validate.Struct(poll); err != nil {
			return "", nil, validationError(err)
		}
		normalised = poll

	case models.ElementQuestion:
		var q models.QuestionData
		if err := decodePayload(data, &q); err != nil {
			return "", nil, err
		}
		q.Text = strings.TrimSpace(q.Text)
		if err := validate.Struct(q); err != nil {
			return "", nil, validationError(err)
		}
		if len(q.Placeholder) > 0 && string(q.Placeholder) != "null" {
			var placeholder string
			if err := json.Unmarshal(q.Placeholder, &placeholder); err != nil {
				return "", nil, apperrors.Validation("question placeholder must be text")
			}
		}
		normalised = q

	case models.ElementCountdown:
		var c models.CountdownData
		if err := decodePayload(data, &c); err != nil {
			return "", nil, err
		}
		c.Title = strings.TrimSpace(c.Title)
		if err := validate.Struct(c); err != nil {
			return "", nil, validationError(err)
		}
		target, err := ParseTargetDate(c.TargetDate)
		if err != nil {
			return "", nil, apperrors.Validation("countdown target_date %q is not a valid date", c.TargetDate)
		}
		if !target.After(now) {
			return "", nil, apperrors.Validation("countdown target_date must be in the future")
		}
		normalised = c

	case models.ElementLink:
		var l models.LinkData
		if err := decodePayload(data, &l); err != nil {
			return "", nil, err
		}
		l.URL = strings.TrimSpace(l.URL)
		if err := validate.Struct(l); err != nil {
			return "", nil, validationError(err)
		}
		if err := validateLinkURL(l.URL); err != nil {
			return "", nil, err
		}
		normalised = l
	}

	out, err := json.Marshal(normalised)
	if err != nil {
		return "", nil, err
	}
	return t, out, nil
}

func validateLinkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return apperrors.Validation("link url %q is not an absolute URL", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return apperrors.Validation("link url scheme must be http or https")
	}
	return nil
}

// ValidateResponse checks a response against the element it answers and
// returns the normalised payload to store.
func ValidateResponse(element *models.InteractiveElement, data json.RawMessage) (json.RawMessage, error) {
	var normalised any
	switch element.Type {
	case models.ElementPoll:
		var poll models.PollData
		if err := json.Unmarshal(element.Data, &poll); err != nil {
			return nil, err
		}
		var resp models.PollResponse
		if err := decodePayload(data, &resp); err != nil {
			return nil, err
		}
		resp.Option = strings.TrimSpace(resp.Option)
		if !containsString(poll.Options, resp.Option) {
			return nil, apperrors.Validation("%q is not an option of this poll", resp.Option)
		}
		normalised = resp

	case models.ElementQuestion:
		var resp models.QuestionResponse
		if err := decodePayload(data, &resp); err != nil {
			return nil, err
		}
		resp.Answer = strings.TrimSpace(resp.Answer)
		if err := validate.Struct(resp); err != nil {
			return nil, validationError(err)
		}
		normalised = resp

	case models.ElementCountdown:
		var resp models.CountdownResponse
		if err := decodePayload(data, &resp); err != nil {
			return nil, err
		}
		normalised = resp

	case models.ElementLink:
		var resp models.LinkResponse
		if err := decodePayload(data, &resp); err != nil {
			return nil, err
		}
		if !resp.Clicked {
			return nil, apperrors.Validation("link response must record a click")
		}
		normalised = resp

	default:
		return nil, apperrors.Wrap(apperrors.KindValidation, apperrors.ErrUnknownElementType,
			"unknown interactive element type %q", element.Type)
	}

	return json.Marshal(normalised)
}

func containsString(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// TallyPoll counts the votes of each option. Percentages are rounded per
// option, so they do not always sum to 100.
func TallyPoll(element *models.InteractiveElement, responses []*models.InteractiveResponse) (*PollResult, error) {
	var poll models.PollData
	if err := json.Unmarshal(element.Data, &poll); err != nil {
		return nil, err
	}

	votes := make(map[string]int, len(poll.Options))
	total := 0
	for _, r := range responses {
		var resp models.PollResponse
		if err := json.Unmarshal(r.Data, &resp); err != nil {
			continue
		}
		if !containsString(poll.Options, resp.Option) {
			continue
		}
		votes[resp.Option]++
		total++
	}

	result := &PollResult{
		ElementID:  element.ID,
		Question:   poll.Question,
		TotalVotes: total,
		Options:    make([]PollOptionResult, 0, len(poll.Options)),
	}
	for _, option := range poll.Options {
		result.Options = append(result.Options, PollOptionResult{
			Option:     option,
			Votes:      votes[option],
			Percentage: percentOf(votes[option], total),
		})
	}
	return result, nil
}

func percentOf(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) * 100 / float64(total)))
}

// ElementService validates, stores and aggregates interactive elements
type ElementService struct {
	stories    StoryStore
	elements   ElementStore
	visibility *VisibilityResolver
	publisher  Publisher
	now        func() time.Time
}

// NewElementService creates a new element service
func NewElementService(
	stories StoryStore,
	elements ElementStore,
	visibility *VisibilityResolver,
	publisher Publisher,
	now func() time.Time,
) *ElementService {
	if now == nil {
		now = time.Now
	}
	return &ElementService{
		stories:    stories,
		elements:   elements,
		visibility: visibility,
		publisher:  publisher,
		now:        now,
	}
}

// BuildElement validates an input and turns it into an element of storyID
func (s *ElementService) BuildElement(storyID string, in ElementInput) (*models.InteractiveElement, error) {
	t, data, err := ValidateElement(in.Type, in.Data, s.now())
	if err != nil {
		return nil, err
	}
	return &models.InteractiveElement{
		ID:        uuid.New().String(),
		StoryID:   storyID,
		Type:      t,
		Data:      data,
		Position:  in.Position,
		CreatedAt: s.now(),
	}, nil
}

// AddElement attaches a new element to one of the owner's active stories
func (s *ElementService) AddElement(ctx context.Context, ownerID, storyID string, in ElementInput) (*models.InteractiveElement, error) {
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if story.OwnerID != ownerID {
		return nil, apperrors.Wrap(apperrors.KindAuthorization, apperrors.ErrNotOwner, "only the owner can add elements")
	}
	if !story.IsActive || IsExpiredAt(story.ExpiresAt, s.now()) {
		return nil, apperrors.Validation("story %s is no longer active", storyID)
	}

	element, err := s.BuildElement(storyID, in)
	if err != nil {
		return nil, err
	}
	if err := s.elements.Create(ctx, element); err != nil {
		return nil, err
	}

	s.publisher.Publish(StoryTopic(storyID), Event{
		Type:      EventStoryUpdated,
		StoryID:   storyID,
		ElementID: element.ID,
		ActorID:   ownerID,
		Timestamp: s.now().UnixMilli(),
	})
	return element, nil
}

// ListElements returns the elements of a story the viewer can see
func (s *ElementService) ListElements(ctx context.Context, viewerID, storyID string) ([]*models.InteractiveElement, error) {
	if _, err := s.visibility.VisibleStory(ctx, viewerID, storyID); err != nil {
		return nil, err
	}
	return s.elements.ListByStory(ctx, storyID)
}

// RecordResponse stores the viewer's response, replacing any previous one
func (s *ElementService) RecordResponse(ctx context.Context, viewerID, elementID string, data json.RawMessage) (*models.InteractiveResponse, error) {
	element, err := s.elements.GetByID(ctx, elementID)
	if err != nil {
		return nil, err
	}
	story, err := s.visibility.VisibleStory(ctx, viewerID, element.StoryID)
	if err != nil {
		return nil, err
	}

	normalised, err := ValidateResponse(element, data)
	if err != nil {
		return nil, err
	}

	now := s.now()
	resp := &models.InteractiveResponse{
		ID:        uuid.New().String(),
		ElementID: elementID,
		ViewerID:  viewerID,
		Data:      normalised,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.elements.UpsertResponse(ctx, resp); err != nil {
		return nil, err
	}

	event := Event{
		Type:      EventElementResponse,
		StoryID:   story.ID,
		ElementID: elementID,
		ActorID:   viewerID,
		Timestamp: now.UnixMilli(),
	}
	s.publisher.Publish(StoryTopic(story.ID), event)
	s.publisher.Publish(UserTopic(story.OwnerID), event)
	return resp, nil
}

// PollResults tallies a poll for anyone who can see its story
func (s *ElementService) PollResults(ctx context.Context, viewerID, elementID string) (*PollResult, error) {
	element, err := s.elements.GetByID(ctx, elementID)
	if err != nil {
		return nil, err
	}
	if element.Type != models.ElementPoll {
		return nil, apperrors.Validation("element %s is a %s, not a poll", elementID, element.Type)
	}
	if _, err := s.visibility.VisibleStory(ctx, viewerID, element.StoryID); err != nil {
		return nil, err
	}
	return s.pollResults(ctx, element)
}

func (s *ElementService) pollResults(ctx context.Context, element *models.InteractiveElement) (*PollResult, error) {
	responses, err := s.elements.ListResponses(ctx, element.ID)
	if err != nil {
		return nil, err
	}
	return TallyPoll(element, responses)
}
