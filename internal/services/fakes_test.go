package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"story-backend/internal/apperrors"
	"story-backend/internal/media"
	"story-backend/internal/models"
)

var errBackend = errors.New("backend unavailable")

type fakeStoryStore struct {
	mu        sync.Mutex
	stories   map[string]*models.Story
	mentions  map[string][]string
	createErr error
	listErr   error
	calls     map[string]int
}

func newFakeStoryStore() *fakeStoryStore {
	return &fakeStoryStore{
		stories:  make(map[string]*models.Story),
		mentions: make(map[string][]string),
		calls:    make(map[string]int),
	}
}

func (f *fakeStoryStore) put(s *models.Story) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.stories[s.ID] = &cp
}

func (f *fakeStoryStore) get(id string) *models.Story {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.stories[id]; ok {
		cp := *s
		return &cp
	}
	return nil
}

func (f *fakeStoryStore) Create(_ context.Context, s *models.Story) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Create"]++
	if f.createErr != nil {
		return f.createErr
	}
	cp := *s
	f.stories[s.ID] = &cp
	return nil
}

func (f *fakeStoryStore) Upsert(_ context.Context, s *models.Story) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Upsert"]++
	cp := *s
	f.stories[s.ID] = &cp
	return nil
}

func (f *fakeStoryStore) GetByID(_ context.Context, id string) (*models.Story, error) {
	if s := f.get(id); s != nil {
		return s, nil
	}
	return nil, apperrors.NotFound("story", id)
}

func (f *fakeStoryStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Delete"]++
	delete(f.stories, id)
	return nil
}

func (f *fakeStoryStore) DeleteInactive(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.stories[id]; ok && !s.IsActive {
		delete(f.stories, id)
	}
	return nil
}

func (f *fakeStoryStore) Deactivate(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["Deactivate"]++
	s, ok := f.stories[id]
	if !ok || !s.IsActive {
		return false, nil
	}
	s.IsActive = false
	return true, nil
}

func (f *fakeStoryStore) sorted(filter func(*models.Story) bool, less func(a, b *models.Story) bool) []*models.Story {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Story
	for _, s := range f.stories {
		if filter(s) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// ListFeedPage pages through every active story without a relation
// prefilter; the resolver does all of the filtering.
func (f *fakeStoryStore) ListFeedPage(_ context.Context, _ string, now time.Time, after *models.FeedCursor, limit int) ([]*models.Story, error) {
	f.mu.Lock()
	f.calls["ListFeedPage"]++
	f.mu.Unlock()
	out := f.sorted(
		func(s *models.Story) bool {
			return s.IsActive && !s.ExpiresAt.Before(now) && (after == nil || after.After(s))
		},
		func(a, b *models.Story) bool {
			if a.CreatedAt.Equal(b.CreatedAt) {
				return a.ID > b.ID
			}
			return a.CreatedAt.After(b.CreatedAt)
		},
	)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStoryStore) ListActiveByOwner(_ context.Context, ownerID string) ([]*models.Story, error) {
	return f.sorted(
		func(s *models.Story) bool { return s.IsActive && s.OwnerID == ownerID },
		func(a, b *models.Story) bool { return a.CreatedAt.Before(b.CreatedAt) },
	), nil
}

func (f *fakeStoryStore) ListExpired(_ context.Context, now time.Time) ([]*models.Story, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.sorted(
		func(s *models.Story) bool { return s.IsActive && s.ExpiresAt.Before(now) },
		func(a, b *models.Story) bool { return a.ExpiresAt.Before(b.ExpiresAt) },
	), nil
}

func (f *fakeStoryStore) SumActiveSize(_ context.Context, ownerID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int64
	for _, s := range f.stories {
		if s.IsActive && s.OwnerID == ownerID {
			sum += s.FileSizeBytes
		}
	}
	return sum, nil
}

func (f *fakeStoryStore) IncrementCounter(_ context.Context, id string, counter models.StoryCounter) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stories[id]
	if !ok {
		return apperrors.NotFound("story", id)
	}
	switch counter {
	case models.CounterViews:
		s.ViewCount++
	case models.CounterReactions:
		s.ReactionCount++
	case models.CounterReplies:
		s.ReplyCount++
	}
	return nil
}

func (f *fakeStoryStore) UpdatePrivacy(_ context.Context, id string, privacy models.PrivacySetting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stories[id]
	if !ok {
		return apperrors.NotFound("story", id)
	}
	s.Privacy = privacy
	return nil
}

func (f *fakeStoryStore) UpdateExpiration(_ context.Context, id string, hours int, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stories[id]
	if !ok {
		return apperrors.NotFound("story", id)
	}
	s.DurationHours = hours
	s.ExpiresAt = expiresAt
	return nil
}

func (f *fakeStoryStore) AddMentions(_ context.Context, storyID string, userIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mentions[storyID] = append(f.mentions[storyID], userIDs...)
	return nil
}

func (f *fakeStoryStore) DeleteMentions(_ context.Context, storyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.mentions, storyID)
	return nil
}

type pair struct{ a, b string }

type fakeRelationStore struct {
	mu           sync.Mutex
	follows      map[pair]bool
	closeFriends map[pair]bool
	blocks       map[pair]bool
	hidden       map[pair]bool
	custom       map[string]map[string]bool
	setListErr   error
}

func newFakeRelationStore() *fakeRelationStore {
	return &fakeRelationStore{
		follows:      make(map[pair]bool),
		closeFriends: make(map[pair]bool),
		blocks:       make(map[pair]bool),
		hidden:       make(map[pair]bool),
		custom:       make(map[string]map[string]bool),
	}
}

func (f *fakeRelationStore) set(kind models.RelationKind) map[pair]bool {
	switch kind {
	case models.RelationFollow:
		return f.follows
	case models.RelationCloseFriend:
		return f.closeFriends
	case models.RelationBlock:
		return f.blocks
	default:
		return f.hidden
	}
}

func (f *fakeRelationStore) Add(_ context.Context, rel *models.Relation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set(rel.Kind)[pair{rel.OwnerID, rel.TargetID}] = true
	return nil
}

func (f *fakeRelationStore) Remove(_ context.Context, kind models.RelationKind, ownerID, targetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.set(kind), pair{ownerID, targetID})
	return nil
}

func (f *fakeRelationStore) Facts(_ context.Context, story *models.Story, viewerID string) (models.RelationFacts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return models.RelationFacts{
		BlockedByOwner: f.blocks[pair{story.OwnerID, viewerID}],
		HiddenByOwner:  f.hidden[pair{story.OwnerID, viewerID}],
		FollowsOwner:   f.follows[pair{viewerID, story.OwnerID}],
		CloseFriend:    f.closeFriends[pair{story.OwnerID, viewerID}],
		InCustomList:   f.custom[story.ID][viewerID],
	}, nil
}

func (f *fakeRelationStore) SetCustomList(_ context.Context, storyID string, viewerIDs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setListErr != nil {
		return f.setListErr
	}
	list := make(map[string]bool, len(viewerIDs))
	for _, id := range viewerIDs {
		list[id] = true
	}
	f.custom[storyID] = list
	return nil
}

func (f *fakeRelationStore) DeleteCustomList(_ context.Context, storyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.custom, storyID)
	return nil
}

func (f *fakeRelationStore) FollowerIDs(_ context.Context, userID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for p := range f.follows {
		if p.b == userID {
			ids = append(ids, p.a)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type fakeEngagementStore struct {
	mu        sync.Mutex
	views     map[string]map[string]*models.StoryView
	reactions []*models.StoryReaction
	replies   []*models.StoryReply
}

func newFakeEngagementStore() *fakeEngagementStore {
	return &fakeEngagementStore{views: make(map[string]map[string]*models.StoryView)}
}

func (f *fakeEngagementStore) UpsertView(_ context.Context, v *models.StoryView) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	byViewer, ok := f.views[v.StoryID]
	if !ok {
		byViewer = make(map[string]*models.StoryView)
		f.views[v.StoryID] = byViewer
	}
	if existing, ok := byViewer[v.ViewerID]; ok {
		existing.ViewedAt = v.ViewedAt
		if v.DurationSeconds != nil {
			existing.DurationSeconds = v.DurationSeconds
		}
		existing.Completed = existing.Completed || v.Completed
		return false, nil
	}
	cp := *v
	byViewer[v.ViewerID] = &cp
	return true, nil
}

func (f *fakeEngagementStore) ListViews(_ context.Context, storyID string) ([]*models.StoryView, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.StoryView
	for _, v := range f.views[storyID] {
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ViewedAt.Equal(out[j].ViewedAt) {
			return out[i].ViewerID < out[j].ViewerID
		}
		return out[i].ViewedAt.After(out[j].ViewedAt)
	})
	return out, nil
}

func (f *fakeEngagementStore) CountViews(_ context.Context, storyID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.views[storyID]), nil
}

func (f *fakeEngagementStore) AddReaction(_ context.Context, r *models.StoryReaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reactions = append(f.reactions, r)
	return nil
}

func (f *fakeEngagementStore) AddReply(_ context.Context, r *models.StoryReply) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, r)
	return nil
}

type fakeElementStore struct {
	mu        sync.Mutex
	elements  map[string]*models.InteractiveElement
	responses map[string]map[string]*models.InteractiveResponse
	createErr error
}

func newFakeElementStore() *fakeElementStore {
	return &fakeElementStore{
		elements:  make(map[string]*models.InteractiveElement),
		responses: make(map[string]map[string]*models.InteractiveResponse),
	}
}

func (f *fakeElementStore) Create(_ context.Context, e *models.InteractiveElement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	cp := *e
	f.elements[e.ID] = &cp
	return nil
}

func (f *fakeElementStore) GetByID(_ context.Context, id string) (*models.InteractiveElement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.elements[id]
	if !ok {
		return nil, apperrors.NotFound("element", id)
	}
	cp := *e
	return &cp, nil
}

func (f *fakeElementStore) ListByStory(_ context.Context, storyID string) ([]*models.InteractiveElement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.InteractiveElement
	for _, e := range f.elements {
		if e.StoryID == storyID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeElementStore) DeleteByStory(_ context.Context, storyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, e := range f.elements {
		if e.StoryID == storyID {
			delete(f.elements, id)
		}
	}
	return nil
}

func (f *fakeElementStore) UpsertResponse(_ context.Context, r *models.InteractiveResponse) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	byViewer, ok := f.responses[r.ElementID]
	if !ok {
		byViewer = make(map[string]*models.InteractiveResponse)
		f.responses[r.ElementID] = byViewer
	}
	if existing, ok := byViewer[r.ViewerID]; ok {
		existing.Data = r.Data
		existing.UpdatedAt = r.UpdatedAt
		return nil
	}
	cp := *r
	byViewer[r.ViewerID] = &cp
	return nil
}

func (f *fakeElementStore) ListResponses(_ context.Context, elementID string) ([]*models.InteractiveResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.InteractiveResponse
	for _, r := range f.responses[elementID] {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

type fakeArchiveStore struct {
	mu        sync.Mutex
	entries   map[string]*models.ArchivedStory
	insertErr error
}

func newFakeArchiveStore() *fakeArchiveStore {
	return &fakeArchiveStore{entries: make(map[string]*models.ArchivedStory)}
}

func (f *fakeArchiveStore) Insert(_ context.Context, a *models.ArchivedStory) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return false, f.insertErr
	}
	for _, existing := range f.entries {
		if existing.StoryID == a.StoryID {
			return false, nil
		}
	}
	cp := *a
	f.entries[a.ID] = &cp
	return true, nil
}

func (f *fakeArchiveStore) GetByID(_ context.Context, id string) (*models.ArchivedStory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.entries[id]
	if !ok {
		return nil, apperrors.NotFound("archived story", id)
	}
	cp := *a
	return &cp, nil
}

func (f *fakeArchiveStore) ListByOwner(_ context.Context, ownerID string) ([]*models.ArchivedStory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ArchivedStory
	for _, a := range f.entries {
		if a.OwnerID == ownerID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeArchiveStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, id)
	return nil
}

func (f *fakeArchiveStore) SumSize(_ context.Context, ownerID string) (int64, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int64
	unknown := 0
	for _, a := range f.entries {
		if a.OwnerID != ownerID {
			continue
		}
		if a.FileSizeBytes == 0 {
			unknown++
		}
		sum += a.FileSizeBytes
	}
	return sum, unknown, nil
}

func (f *fakeArchiveStore) byStory(storyID string) *models.ArchivedStory {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.entries {
		if a.StoryID == storyID {
			cp := *a
			return &cp
		}
	}
	return nil
}

type fakeBlobStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploads   []string
	deletes   []string
	uploadErr error
	deleteErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: make(map[string][]byte)}
}

func (f *fakeBlobStore) Upload(_ context.Context, key, _ string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, key)
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.objects[key] = data
	return nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, key)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobStore) PublicURL(key string) string {
	return "https://media.test/" + key
}

type fakeThreadStore struct {
	mu            sync.Mutex
	conversations map[pair]*models.Conversation
	messages      []*models.Message
}

func newFakeThreadStore() *fakeThreadStore {
	return &fakeThreadStore{conversations: make(map[pair]*models.Conversation)}
}

func (f *fakeThreadStore) GetOrCreateConversation(_ context.Context, userID, otherID string, now time.Time) (*models.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, b := models.OrderedPair(userID, otherID)
	key := pair{a, b}
	if c, ok := f.conversations[key]; ok {
		return c, nil
	}
	c := &models.Conversation{ID: "conv-" + a + "-" + b, UserAID: a, UserBID: b, CreatedAt: now, UpdatedAt: now}
	f.conversations[key] = c
	return c, nil
}

func (f *fakeThreadStore) AppendMessage(_ context.Context, m *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, m)
	return nil
}

type fakeUserStore struct {
	mu         sync.Mutex
	users      map[string]*models.User
	pushTokens map[string]string
}

func newFakeUserStore(ids ...string) *fakeUserStore {
	f := &fakeUserStore{users: make(map[string]*models.User), pushTokens: make(map[string]string)}
	for _, id := range ids {
		f.users[id] = &models.User{ID: id, Handle: id}
	}
	return f
}

func (f *fakeUserStore) Create(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperrors.NotFound("user", id)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) HandleExists(_ context.Context, handle string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Handle == handle {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUserStore) Exists(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeUserStore) UpdatePushToken(_ context.Context, userID string, pushToken *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[userID]; !ok {
		return apperrors.NotFound("user", userID)
	}
	if pushToken == nil {
		delete(f.pushTokens, userID)
	} else {
		f.pushTokens[userID] = *pushToken
	}
	return nil
}

func (f *fakeUserStore) GetPushToken(_ context.Context, userID string) (*string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.pushTokens[userID]; ok {
		return &t, nil
	}
	return nil, nil
}

type published struct {
	topic string
	event Event
}

type fakePublisher struct {
	mu      sync.Mutex
	events  []published
	batches int
}

func (f *fakePublisher) Publish(topic string, event Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, published{topic: topic, event: event})
}

func (f *fakePublisher) PublishToUsers(userIDs []string, event Event) {
	f.mu.Lock()
	f.batches++
	f.mu.Unlock()
	for _, id := range userIDs {
		f.Publish(UserTopic(id), event)
	}
}

func (f *fakePublisher) count(topic, eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.events {
		if p.topic == topic && p.event.Type == eventType {
			n++
		}
	}
	return n
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent map[string][]PushNotification
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, userID string, n PushNotification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sent == nil {
		f.sent = make(map[string][]PushNotification)
	}
	f.sent[userID] = append(f.sent[userID], n)
	return f.err
}

// testEnv wires every service against in-memory fakes and a fixed clock
type testEnv struct {
	now        time.Time
	stories    *fakeStoryStore
	relations  *fakeRelationStore
	engagement *fakeEngagementStore
	elements   *fakeElementStore
	archive    *fakeArchiveStore
	blobs      *fakeBlobStore
	threads    *fakeThreadStore
	users      *fakeUserStore
	publisher  *fakePublisher
	notifier   *fakeNotifier

	visibility *VisibilityResolver
	quota      *QuotaService
	elementSvc *ElementService
	storySvc   *StoryService
	analytics  *AnalyticsService
	relSvc     *RelationService
}

const (
	testQuotaLimit = 100 * 1024 * 1024
	testEstimate   = 5 * 1024 * 1024
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEnv() *testEnv {
	env := &testEnv{
		now:        testNow,
		stories:    newFakeStoryStore(),
		relations:  newFakeRelationStore(),
		engagement: newFakeEngagementStore(),
		elements:   newFakeElementStore(),
		archive:    newFakeArchiveStore(),
		blobs:      newFakeBlobStore(),
		threads:    newFakeThreadStore(),
		users:      newFakeUserStore("owner", "viewer", "friend", "stranger"),
		publisher:  &fakePublisher{},
		notifier:   &fakeNotifier{},
	}
	clock := func() time.Time { return env.now }

	env.visibility = NewVisibilityResolver(env.stories, env.relations, clock)
	env.quota = NewQuotaService(env.stories, env.archive, testQuotaLimit, testEstimate)
	env.elementSvc = NewElementService(env.stories, env.elements, env.visibility, env.publisher, clock)
	env.storySvc = NewStoryService(StoryDeps{
		Stories:    env.stories,
		Relations:  env.relations,
		Engagement: env.engagement,
		Elements:   env.elements,
		Archive:    env.archive,
		Threads:    env.threads,
		Blobs:      env.blobs,
		Media:      media.NewProcessor(media.Limits{MaxFileSizeBytes: 100 * 1024 * 1024, MaxWidth: 1920, MaxHeight: 1080}),
		Quota:      env.quota,
		Visibility: env.visibility,
		Builder:    env.elementSvc,
		Publisher:  env.publisher,
		Notifier:   env.notifier,
	}, StoryOptions{DefaultDurationHours: 24, FeedLimit: 50}, clock)
	env.analytics = NewAnalyticsService(env.stories, env.engagement, env.elements, clock)
	env.relSvc = NewRelationService(env.relations, env.users, clock)
	return env
}

// addStory stores an active story created age ago with the given privacy
func (e *testEnv) addStory(id, owner string, privacy models.PrivacySetting, age time.Duration) *models.Story {
	created := e.now.Add(-age)
	s := &models.Story{
		ID:            id,
		OwnerID:       owner,
		MediaKey:      "stories/" + owner + "/" + id + ".jpg",
		MediaURL:      "https://media.test/stories/" + owner + "/" + id + ".jpg",
		MediaType:     models.MediaImage,
		Privacy:       privacy,
		DurationHours: 24,
		CreatedAt:     created,
		ExpiresAt:     CalculateExpirationTimestamp(created, 24),
		IsActive:      true,
		FileSizeBytes: 1024,
	}
	e.stories.put(s)
	return s
}

func (e *testEnv) addViews(storyID string, total, completed int) {
	for i := 0; i < total; i++ {
		_, _ = e.engagement.UpsertView(context.Background(), &models.StoryView{
			ID:        storyID + "-view-" + itoa(i),
			StoryID:   storyID,
			ViewerID:  "viewer-" + itoa(i),
			ViewedAt:  e.now.Add(-time.Duration(i) * time.Minute),
			Completed: i < completed,
		})
	}
}

func itoa(i int) string {
	const digits = "0123456789"
	if i < 10 {
		return digits[i : i+1]
	}
	return itoa(i/10) + digits[i%10:i%10+1]
}
