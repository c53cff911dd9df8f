package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"story-backend/internal/apperrors"
	"story-backend/internal/config"
	"story-backend/internal/media"
	"story-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	maxContentRunes      = 2200
	maxReactionTypeRunes = 32
	maxReplyRunes        = 1000
	feedScanFactor       = 5
)

// CalculateExpirationTimestamp returns createdAt + hours, exactly
func CalculateExpirationTimestamp(createdAt time.Time, hours int) time.Time {
	return createdAt.Add(time.Duration(hours) * time.Hour)
}

// ValidateCustomDuration reports whether hours is an allowed story duration
func ValidateCustomDuration(hours int) bool {
	return hours >= config.MinStoryDurationHours && hours <= config.MaxStoryDurationHours
}

// IsStoryExpired reports whether expiresAt has passed
func IsStoryExpired(expiresAt time.Time) bool {
	return IsExpiredAt(expiresAt, time.Now())
}

// IsExpiredAt reports whether expiresAt lies before now
func IsExpiredAt(expiresAt, now time.Time) bool {
	return now.After(expiresAt)
}

func invalidDuration(hours int) error {
	return apperrors.Wrap(apperrors.KindValidation, apperrors.ErrInvalidDuration,
		"duration %d is outside %d-%d hours", hours, config.MinStoryDurationHours, config.MaxStoryDurationHours)
}

func requireOwner(ownerID, requesterID string) error {
	if ownerID != requesterID {
		return apperrors.Wrap(apperrors.KindAuthorization, apperrors.ErrNotOwner, "only the owner can do this")
	}
	return nil
}

func requireTransition(from, to models.StoryState) error {
	if !models.CanTransition(from, to) {
		return apperrors.Validation("story cannot move from %s to %s", from, to)
	}
	return nil
}

// StoryOptions are the story limits taken from configuration
type StoryOptions struct {
	DefaultDurationHours int
	FeedLimit            int
}

// StoryDeps groups the collaborators of the story service
type StoryDeps struct {
	Stories    StoryStore
	Relations  RelationStore
	Engagement EngagementStore
	Elements   ElementStore
	Archive    ArchiveStore
	Threads    ThreadStore
	Blobs      BlobStore
	Media      *media.Processor
	Quota      *QuotaService
	Visibility *VisibilityResolver
	Builder    *ElementService
	Publisher  Publisher
	Notifier   Notifier
}

// StoryService owns the story lifecycle: creation, engagement, expiration,
// archival, restore and purge.
type StoryService struct {
	StoryDeps
	opts StoryOptions
	now  func() time.Time
}

// NewStoryService creates a new story service
func NewStoryService(deps StoryDeps, opts StoryOptions, now func() time.Time) *StoryService {
	if now == nil {
		now = time.Now
	}
	if opts.DefaultDurationHours == 0 {
		opts.DefaultDurationHours = 24
	}
	if opts.FeedLimit <= 0 {
		opts.FeedLimit = 100
	}
	return &StoryService{StoryDeps: deps, opts: opts, now: now}
}

// CreateStoryInput is everything needed to publish a story
type CreateStoryInput struct {
	OwnerID         string
	Media           []byte
	Thumbnail       []byte
	Privacy         string
	CustomViewerIDs []string
	DurationHours   *int
	Content         *string
	MentionIDs      []string
	Elements        []ElementInput
}

type rollbackStep struct {
	name string
	undo func(ctx context.Context) error
}

// rollback undoes completed creation steps in reverse order. Every undo is
// keyed by path or story id, so running it twice is harmless.
type rollback struct {
	storyID string
	steps   []rollbackStep
}

func (r *rollback) push(name string, undo func(ctx context.Context) error) {
	r.steps = append(r.steps, rollbackStep{name: name, undo: undo})
}

func (r *rollback) run(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	for i := len(r.steps) - 1; i >= 0; i-- {
		step := r.steps[i]
		if err := step.undo(ctx); err != nil {
			log.Warn().Err(err).
				Str("story_id", r.storyID).
				Str("step", step.name).
				Msg("Story creation rollback step failed")
		}
	}
}

func uniqueIDs(ids []string, exclude string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || id == exclude {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// CreateStory validates and uploads the media, then persists the story with its
// allow-list, mentions and elements. When a step fails, the steps already done
// are undone so the caller sees either the whole story or nothing.
func (s *StoryService) CreateStory(ctx context.Context, in CreateStoryInput) (*models.Story, error) {
	hours := s.opts.DefaultDurationHours
	if in.DurationHours != nil {
		hours = *in.DurationHours
	}
	if !ValidateCustomDuration(hours) {
		return nil, invalidDuration(hours)
	}

	privacy, err := models.ParsePrivacySetting(in.Privacy)
	if err != nil {
		return nil, apperrors.Validation("%v", err)
	}
	var customIDs []string
	if privacy == models.PrivacyCustom {
		customIDs = uniqueIDs(in.CustomViewerIDs, in.OwnerID)
	}
	mentionIDs := uniqueIDs(in.MentionIDs, in.OwnerID)

	var content *string
	if in.Content != nil {
		text := strings.TrimSpace(*in.Content)
		if utf8.RuneCountInString(text) > maxContentRunes {
			return nil, apperrors.Validation("content exceeds %d characters", maxContentRunes)
		}
		if text != "" {
			content = &text
		}
	}

	storyID := uuid.New().String()
	elements := make([]*models.InteractiveElement, 0, len(in.Elements))
	for _, e := range in.Elements {
		element, err := s.Builder.BuildElement(storyID, e)
		if err != nil {
			return nil, err
		}
		elements = append(elements, element)
	}

	prepared, err := s.Media.Prepare(in.Media)
	if err != nil {
		return nil, err
	}
	var thumb *media.Prepared
	if len(in.Thumbnail) > 0 {
		thumb, err = s.Media.Prepare(in.Thumbnail)
		if err != nil {
			return nil, err
		}
		if thumb.MediaType != models.MediaImage {
			return nil, apperrors.Wrap(apperrors.KindValidation, apperrors.ErrUnsupportedMedia, "thumbnail must be an image")
		}
	}

	size := prepared.Size()
	if thumb != nil {
		size += thumb.Size()
	}
	if err := s.Quota.EnforceQuota(ctx, in.OwnerID, size); err != nil {
		return nil, err
	}

	rb := &rollback{storyID: storyID}
	fail := func(err error) (*models.Story, error) {
		rb.run(ctx)
		return nil, err
	}

	mediaKey := fmt.Sprintf("stories/%s/%s.%s", in.OwnerID, storyID, prepared.Extension)
	if err := s.Blobs.Upload(ctx, mediaKey, prepared.ContentType, prepared.Data); err != nil {
		return nil, err
	}
	rb.push("delete media", func(ctx context.Context) error { return s.Blobs.Delete(ctx, mediaKey) })

	var thumbKey *string
	if thumb != nil {
		key := fmt.Sprintf("stories/%s/%s_thumb.%s", in.OwnerID, storyID, thumb.Extension)
		if err := s.Blobs.Upload(ctx, key, thumb.ContentType, thumb.Data); err != nil {
			return fail(err)
		}
		rb.push("delete thumbnail", func(ctx context.Context) error { return s.Blobs.Delete(ctx, key) })
		thumbKey = &key
	}

	now := s.now()
	story := &models.Story{
		ID:            storyID,
		OwnerID:       in.OwnerID,
		MediaKey:      mediaKey,
		MediaURL:      s.Blobs.PublicURL(mediaKey),
		MediaType:     prepared.MediaType,
		ThumbnailKey:  thumbKey,
		Content:       content,
		Privacy:       privacy,
		DurationHours: hours,
		CreatedAt:     now,
		ExpiresAt:     CalculateExpirationTimestamp(now, hours),
		IsActive:      true,
		FileSizeBytes: size,
	}
	if err := s.Stories.Create(ctx, story); err != nil {
		return fail(err)
	}
	rb.push("delete story", func(ctx context.Context) error { return s.Stories.Delete(ctx, storyID) })

	if privacy == models.PrivacyCustom {
		if err := s.Relations.SetCustomList(ctx, storyID, customIDs); err != nil {
			return fail(err)
		}
		rb.push("delete custom list", func(ctx context.Context) error { return s.Relations.DeleteCustomList(ctx, storyID) })
	}

	if len(mentionIDs) > 0 {
		if err := s.Stories.AddMentions(ctx, storyID, mentionIDs); err != nil {
			return fail(err)
		}
		rb.push("delete mentions", func(ctx context.Context) error { return s.Stories.DeleteMentions(ctx, storyID) })
	}

	if len(elements) > 0 {
		rb.push("delete elements", func(ctx context.Context) error { return s.Elements.DeleteByStory(ctx, storyID) })
		for _, e := range elements {
			if err := s.Elements.Create(ctx, e); err != nil {
				return fail(err)
			}
		}
	}

	log.Info().
		Str("story_id", storyID).
		Str("owner_id", in.OwnerID).
		Str("privacy", string(privacy)).
		Int("duration_hours", hours).
		Int64("size_bytes", size).
		Msg("Story created")

	s.announce(ctx, story, EventStoryCreated, mentionIDs)
	return story, nil
}

// announce tells followers and mentioned users that a story changed
func (s *StoryService) announce(ctx context.Context, story *models.Story, eventType string, extra []string) {
	event := Event{
		Type:      eventType,
		StoryID:   story.ID,
		ActorID:   story.OwnerID,
		Timestamp: s.now().UnixMilli(),
	}
	followers, err := s.Relations.FollowerIDs(ctx, story.OwnerID)
	if err != nil {
		log.Warn().Err(err).Str("story_id", story.ID).Msg("Failed to list followers for story event")
	}
	recipients := uniqueIDs(append(append([]string{story.OwnerID}, followers...), extra...), "")
	s.Publisher.PublishToUsers(recipients, event)
	s.Publisher.Publish(StoryTopic(story.ID), event)
}

// GetStory returns a story if viewerID may see it
func (s *StoryService) GetStory(ctx context.Context, viewerID, storyID string) (*models.Story, error) {
	return s.Visibility.VisibleStory(ctx, viewerID, storyID)
}

// VisibleStories returns the active stories viewerID may see, most recent
// first. Candidates are read in pages until the feed is full or the store
// runs out, so stories hidden from the viewer never crowd out visible ones.
func (s *StoryService) VisibleStories(ctx context.Context, viewerID string) ([]*models.Story, error) {
	limit := s.opts.FeedLimit
	pageSize := limit * feedScanFactor
	now := s.now()

	visible := make([]*models.Story, 0, limit)
	var cursor *models.FeedCursor
	for len(visible) < limit {
		page, err := s.Stories.ListFeedPage(ctx, viewerID, now, cursor, pageSize)
		if err != nil {
			return nil, err
		}
		allowed, err := s.Visibility.Filter(ctx, viewerID, page)
		if err != nil {
			return nil, err
		}
		visible = append(visible, allowed...)
		if len(page) < pageSize {
			break
		}
		last := page[len(page)-1]
		cursor = &models.FeedCursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}
	if len(visible) > limit {
		visible = visible[:limit]
	}
	return visible, nil
}

// View records that viewerID watched a story. Owners viewing their own story
// are not recorded.
func (s *StoryService) View(ctx context.Context, viewerID, storyID string, durationSeconds *float64, completed bool) error {
	if durationSeconds != nil && *durationSeconds < 0 {
		return apperrors.Validation("duration_seconds must not be negative")
	}
	story, err := s.Visibility.VisibleStory(ctx, viewerID, storyID)
	if err != nil {
		return err
	}
	if story.OwnerID == viewerID {
		return nil
	}

	now := s.now()
	inserted, err := s.Engagement.UpsertView(ctx, &models.StoryView{
		ID:              uuid.New().String(),
		StoryID:         storyID,
		ViewerID:        viewerID,
		ViewedAt:        now,
		DurationSeconds: durationSeconds,
		Completed:       completed,
	})
	if err != nil {
		return err
	}
	if inserted {
		if err := s.Stories.IncrementCounter(ctx, storyID, models.CounterViews); err != nil {
			return err
		}
	}

	s.Publisher.Publish(UserTopic(story.OwnerID), Event{
		Type:      EventStoryViewed,
		StoryID:   storyID,
		ActorID:   viewerID,
		Timestamp: now.UnixMilli(),
	})
	return nil
}

// React appends a reaction and bumps the reaction counter
func (s *StoryService) React(ctx context.Context, viewerID, storyID, reactionType string) (*models.StoryReaction, error) {
	reactionType = strings.TrimSpace(reactionType)
	if n := utf8.RuneCountInString(reactionType); n == 0 || n > maxReactionTypeRunes {
		return nil, apperrors.Validation("reaction type must be 1-%d characters", maxReactionTypeRunes)
	}
	story, err := s.Visibility.VisibleStory(ctx, viewerID, storyID)
	if err != nil {
		return nil, err
	}

	reaction := &models.StoryReaction{
		ID:           uuid.New().String(),
		StoryID:      storyID,
		UserID:       viewerID,
		ReactionType: reactionType,
		CreatedAt:    s.now(),
	}
	if err := s.Engagement.AddReaction(ctx, reaction); err != nil {
		return nil, err
	}
	if err := s.Stories.IncrementCounter(ctx, storyID, models.CounterReactions); err != nil {
		return nil, err
	}

	event := Event{
		Type:      EventStoryReaction,
		StoryID:   storyID,
		ActorID:   viewerID,
		Timestamp: reaction.CreatedAt.UnixMilli(),
	}
	s.Publisher.Publish(UserTopic(story.OwnerID), event)
	s.Publisher.Publish(StoryTopic(storyID), event)

	if story.OwnerID != viewerID {
		s.notify(ctx, story.OwnerID, PushNotification{
			Title:   "New reaction",
			Body:    "Someone reacted " + reactionType + " to your story",
			StoryID: storyID,
		})
	}
	return reaction, nil
}

// Reply appends a reply, bumps the reply counter and drops the text into the
// private conversation between the viewer and the owner.
func (s *StoryService) Reply(ctx context.Context, viewerID, storyID, text string) (*models.StoryReply, error) {
	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n == 0 || n > maxReplyRunes {
		return nil, apperrors.Validation("reply must be 1-%d characters", maxReplyRunes)
	}
	story, err := s.Visibility.VisibleStory(ctx, viewerID, storyID)
	if err != nil {
		return nil, err
	}
	if story.OwnerID == viewerID {
		return nil, apperrors.Validation("cannot reply to your own story")
	}

	now := s.now()
	reply := &models.StoryReply{
		ID:        uuid.New().String(),
		StoryID:   storyID,
		UserID:    viewerID,
		Body:      text,
		CreatedAt: now,
	}
	if err := s.Engagement.AddReply(ctx, reply); err != nil {
		return nil, err
	}
	if err := s.Stories.IncrementCounter(ctx, storyID, models.CounterReplies); err != nil {
		return nil, err
	}

	conv, err := s.Threads.GetOrCreateConversation(ctx, viewerID, story.OwnerID, now)
	if err != nil {
		return nil, err
	}
	if err := s.Threads.AppendMessage(ctx, &models.Message{
		ID:             uuid.New().String(),
		ConversationID: conv.ID,
		SenderID:       viewerID,
		Body:           text,
		StoryID:        &storyID,
		CreatedAt:      now,
	}); err != nil {
		return nil, err
	}

	s.Publisher.Publish(UserTopic(story.OwnerID), Event{
		Type:      EventStoryReply,
		StoryID:   storyID,
		ActorID:   viewerID,
		Timestamp: now.UnixMilli(),
	})
	s.notify(ctx, story.OwnerID, PushNotification{
		Title:   "New reply",
		Body:    text,
		StoryID: storyID,
	})
	return reply, nil
}

func (s *StoryService) notify(ctx context.Context, userID string, n PushNotification) {
	if err := s.Notifier.Notify(ctx, userID, n); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("story_id", n.StoryID).Msg("Failed to send push notification")
	}
}

// UpdatePrivacy changes the privacy tier of a story. Moving to custom replaces
// the allow-list; moving away from custom discards it.
func (s *StoryService) UpdatePrivacy(ctx context.Context, requesterID, storyID, setting string, customViewerIDs []string) (*models.Story, error) {
	privacy, err := models.ParsePrivacySetting(setting)
	if err != nil {
		return nil, apperrors.Validation("%v", err)
	}
	story, err := s.Stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(story.OwnerID, requesterID); err != nil {
		return nil, err
	}

	if privacy == models.PrivacyCustom {
		if err := s.Relations.SetCustomList(ctx, storyID, uniqueIDs(customViewerIDs, story.OwnerID)); err != nil {
			return nil, err
		}
		if err := s.Stories.UpdatePrivacy(ctx, storyID, privacy); err != nil {
			return nil, err
		}
	} else {
		if err := s.Stories.UpdatePrivacy(ctx, storyID, privacy); err != nil {
			return nil, err
		}
		if err := s.Relations.DeleteCustomList(ctx, storyID); err != nil {
			return nil, err
		}
	}
	story.Privacy = privacy

	s.Publisher.Publish(StoryTopic(storyID), Event{
		Type:      EventStoryUpdated,
		StoryID:   storyID,
		ActorID:   requesterID,
		Timestamp: s.now().UnixMilli(),
	})
	return story, nil
}

// UpdateDuration is the explicit duration edit: expires_at is recomputed from
// the original creation time.
func (s *StoryService) UpdateDuration(ctx context.Context, requesterID, storyID string, hours int) (*models.Story, error) {
	if !ValidateCustomDuration(hours) {
		return nil, invalidDuration(hours)
	}
	story, err := s.Stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(story.OwnerID, requesterID); err != nil {
		return nil, err
	}
	if story.State(s.now()) != models.StateActive {
		return nil, apperrors.Validation("story %s is no longer active", storyID)
	}

	expiresAt := CalculateExpirationTimestamp(story.CreatedAt, hours)
	if err := s.Stories.UpdateExpiration(ctx, storyID, hours, expiresAt); err != nil {
		return nil, err
	}
	story.DurationHours = hours
	story.ExpiresAt = expiresAt

	s.Publisher.Publish(StoryTopic(storyID), Event{
		Type:      EventStoryUpdated,
		StoryID:   storyID,
		ActorID:   requesterID,
		Timestamp: s.now().UnixMilli(),
	})
	return story, nil
}

// archiveStory copies a story into the archive, then takes it out of the active set.
// Both writes are idempotent, so a partially archived story is finished by the next run.
func (s *StoryService) archiveStory(ctx context.Context, story *models.Story, reason models.ArchiveReason, at time.Time) (bool, error) {
	archived := models.NewArchivedStory(uuid.New().String(), story, reason, at)
	inserted, err := s.Archive.Insert(ctx, archived)
	if err != nil {
		return false, err
	}
	if _, err := s.Stories.Deactivate(ctx, story.ID); err != nil {
		return false, err
	}
	return inserted, nil
}

// DeleteStory takes a story out of every feed at once, then archives it
func (s *StoryService) DeleteStory(ctx context.Context, requesterID, storyID string) error {
	story, err := s.Stories.GetByID(ctx, storyID)
	if err != nil {
		return err
	}
	if err := requireOwner(story.OwnerID, requesterID); err != nil {
		return err
	}
	if story.IsActive {
		if err := requireTransition(models.StateActive, models.StateDeleted); err != nil {
			return err
		}
	}

	if _, err := s.Stories.Deactivate(ctx, storyID); err != nil {
		return err
	}
	story.IsActive = false

	if _, err := s.archiveStory(ctx, story, models.ArchiveDeleted, s.now()); err != nil {
		return err
	}

	log.Info().Str("story_id", storyID).Str("owner_id", story.OwnerID).Msg("Story deleted")
	s.Publisher.Publish(StoryTopic(storyID), Event{
		Type:      EventStoryDeleted,
		StoryID:   storyID,
		ActorID:   requesterID,
		Timestamp: s.now().UnixMilli(),
	})
	return nil
}

// SweepError is a story the sweep could not archive
type SweepError struct {
	StoryID string `json:"story_id"`
	Err     error  `json:"-"`
}

// SweepResult summarises one expiration sweep
type SweepResult struct {
	Expired  int          `json:"expired"`
	Archived int          `json:"archived"`
	Errors   []SweepError `json:"errors,omitempty"`
}

// ArchiveExpiredStories archives every active story past its expiration.
// A story that fails stays active and is picked up again by the next run.
func (s *StoryService) ArchiveExpiredStories(ctx context.Context) (*SweepResult, error) {
	now := s.now()
	expired, err := s.Stories.ListExpired(ctx, now)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Expired: len(expired)}
	for _, story := range expired {
		if err := requireTransition(models.StateActive, models.StateExpired); err != nil {
			return nil, err
		}
		inserted, err := s.archiveStory(ctx, story, models.ArchiveExpired, now)
		if err != nil {
			result.Errors = append(result.Errors, SweepError{StoryID: story.ID, Err: err})
			log.Warn().Err(err).Str("story_id", story.ID).Msg("Failed to archive expired story")
			continue
		}
		if inserted {
			result.Archived++
		}
		s.Publisher.Publish(StoryTopic(story.ID), Event{
			Type:      EventStoryExpired,
			StoryID:   story.ID,
			ActorID:   story.OwnerID,
			Timestamp: now.UnixMilli(),
		})
	}
	return result, nil
}

// ListArchivedStories returns the owner's archive, newest story first
func (s *StoryService) ListArchivedStories(ctx context.Context, ownerID string) ([]*models.ArchivedStory, error) {
	archived, err := s.Archive.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(archived, func(i, j int) bool {
		return archived[i].CreatedAt.After(archived[j].CreatedAt)
	})
	return archived, nil
}

// RestoreArchivedStory brings an archived story back for the rest of its
// default-duration window. Once that window has elapsed nothing is changed.
func (s *StoryService) RestoreArchivedStory(ctx context.Context, requesterID, archiveID string) (*models.Story, error) {
	archived, err := s.Archive.GetByID(ctx, archiveID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(archived.OwnerID, requesterID); err != nil {
		return nil, err
	}
	if err := requireTransition(models.StateArchived, models.StateRestored); err != nil {
		return nil, err
	}

	expiresAt := CalculateExpirationTimestamp(archived.CreatedAt, s.opts.DefaultDurationHours)
	if !expiresAt.After(s.now()) {
		return nil, apperrors.Wrap(apperrors.KindValidation, apperrors.ErrRestoreWindowElapsed,
			"archived story expired at %s and can no longer be restored", expiresAt.UTC().Format(time.RFC3339))
	}

	story := &models.Story{
		ID:            archived.StoryID,
		OwnerID:       archived.OwnerID,
		MediaKey:      archived.MediaKey,
		MediaURL:      archived.MediaURL,
		MediaType:     archived.MediaType,
		ThumbnailKey:  archived.ThumbnailKey,
		Content:       archived.Content,
		Privacy:       archived.Privacy,
		DurationHours: s.opts.DefaultDurationHours,
		CreatedAt:     archived.CreatedAt,
		ExpiresAt:     expiresAt,
		IsActive:      true,
		FileSizeBytes: archived.FileSizeBytes,
		ViewCount:     archived.ViewCount,
		ReactionCount: archived.ReactionCount,
		ReplyCount:    archived.ReplyCount,
	}
	if err := s.Stories.Upsert(ctx, story); err != nil {
		return nil, err
	}
	if err := s.Archive.Delete(ctx, archiveID); err != nil {
		return nil, err
	}

	log.Info().Str("story_id", story.ID).Str("archive_id", archiveID).Msg("Story restored")
	s.announce(ctx, story, EventStoryCreated, nil)
	return story, nil
}

// PermanentlyDeleteArchivedStory purges an archive entry together with its
// media. Blob failures are logged and do not stop the purge.
func (s *StoryService) PermanentlyDeleteArchivedStory(ctx context.Context, requesterID, archiveID string) error {
	archived, err := s.Archive.GetByID(ctx, archiveID)
	if err != nil {
		return err
	}
	if err := requireOwner(archived.OwnerID, requesterID); err != nil {
		return err
	}
	if err := requireTransition(models.StateArchived, models.StatePurged); err != nil {
		return err
	}

	if err := s.Blobs.Delete(ctx, archived.MediaKey); err != nil {
		log.Warn().Err(err).Str("archive_id", archiveID).Str("key", archived.MediaKey).Msg("Failed to delete story media")
	}
	if archived.ThumbnailKey != nil {
		if err := s.Blobs.Delete(ctx, *archived.ThumbnailKey); err != nil {
			log.Warn().Err(err).Str("archive_id", archiveID).Str("key", *archived.ThumbnailKey).Msg("Failed to delete story thumbnail")
		}
	}

	if err := s.Archive.Delete(ctx, archiveID); err != nil {
		return err
	}
	if err := s.Stories.DeleteInactive(ctx, archived.StoryID); err != nil {
		return err
	}

	log.Info().Str("story_id", archived.StoryID).Str("archive_id", archiveID).Msg("Archived story purged")
	return nil
}
