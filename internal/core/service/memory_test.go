package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/connectify/social-api/internal/core/domain"
	"github.com/connectify/social-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory repositories shared by the service tests.
// ---------------------------------------------------------------------------

type idGen struct {
	mu sync.Mutex
	n  int
}

func (g *idGen) next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", prefix, g.n)
}

var ids = &idGen{}

type memAccounts struct {
	mu   sync.Mutex
	byID map[string]*domain.Account
	err  error
}

func newMemAccounts() *memAccounts {
	return &memAccounts{byID: map[string]*domain.Account{}}
}

func (r *memAccounts) add(username string) *domain.Account {
	a, _ := r.Create(context.Background(), &domain.Account{
		Name:     strings.ToUpper(username[:1]) + username[1:],
		Username: username,
		Email:    username + "@example.com",
	})
	return a
}

func (r *memAccounts) Create(_ context.Context, a *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, existing := range r.byID {
		if existing.Email == a.Email || existing.Username == a.Username {
			return nil, domain.ErrAccountExists
		}
	}
	cp := *a
	cp.ID = ids.next("acc")
	r.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memAccounts) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memAccounts) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, a := range r.byID {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *memAccounts) FindByIDs(_ context.Context, list []string) ([]*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Account
	for _, id := range list {
		if a, ok := r.byID[id]; ok {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memAccounts) Search(_ context.Context, q string, limit int) ([]*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q = strings.ToLower(q)
	var out []*domain.Account
	for _, a := range r.byID {
		if strings.Contains(strings.ToLower(a.Name), q) || strings.Contains(strings.ToLower(a.Username), q) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memAccounts) UpdateProfile(_ context.Context, id string, u domain.ProfileUpdate, now time.Time) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	if u.Name != nil {
		a.Name = *u.Name
	}
	if u.Bio != nil {
		a.Bio = *u.Bio
	}
	if u.Avatar != nil {
		a.Avatar = *u.Avatar
	}
	a.UpdatedAt = now
	cp := *a
	return &cp, nil
}

func (r *memAccounts) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrAccountNotFound
	}
	delete(r.byID, id)
	return nil
}

type memFollows struct {
	mu    sync.Mutex
	edges []domain.Follow
}

func (r *memFollows) index(follower, following string) int {
	for i, e := range r.edges {
		if e.FollowerID == follower && e.FollowingID == following {
			return i
		}
	}
	return -1
}

func (r *memFollows) Add(_ context.Context, f domain.Follow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index(f.FollowerID, f.FollowingID) < 0 {
		r.edges = append(r.edges, f)
	}
	return nil
}

func (r *memFollows) Remove(_ context.Context, follower, following string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(follower, following)
	if i < 0 {
		return false, nil
	}
	r.edges = append(r.edges[:i], r.edges[i+1:]...)
	return true, nil
}

func (r *memFollows) Exists(_ context.Context, follower, following string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index(follower, following) >= 0, nil
}

func (r *memFollows) FollowingIDs(_ context.Context, follower string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.edges {
		if e.FollowerID == follower {
			out = append(out, e.FollowingID)
		}
	}
	return out, nil
}

func (r *memFollows) FollowerIDs(_ context.Context, following string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.edges {
		if e.FollowingID == following {
			out = append(out, e.FollowerID)
		}
	}
	return out, nil
}

func (r *memFollows) CountFollowers(ctx context.Context, id string) (int64, error) {
	list, _ := r.FollowerIDs(ctx, id)
	return int64(len(list)), nil
}

func (r *memFollows) CountFollowing(ctx context.Context, id string) (int64, error) {
	list, _ := r.FollowingIDs(ctx, id)
	return int64(len(list)), nil
}

func (r *memFollows) DeleteByAccount(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.edges[:0]
	for _, e := range r.edges {
		if e.FollowerID != id && e.FollowingID != id {
			kept = append(kept, e)
		}
	}
	r.edges = kept
	return nil
}

type memPosts struct {
	mu    sync.Mutex
	order []string
	byID  map[string]*domain.Post
}

func newMemPosts() *memPosts {
	return &memPosts{byID: map[string]*domain.Post{}}
}

func clonePost(p *domain.Post) *domain.Post {
	cp := *p
	cp.Likes = append([]string{}, p.Likes...)
	return &cp
}

func (r *memPosts) Create(_ context.Context, p *domain.Post) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := clonePost(p)
	cp.ID = ids.next("post")
	r.byID[cp.ID] = cp
	r.order = append(r.order, cp.ID)
	return clonePost(cp), nil
}

func (r *memPosts) FindByID(_ context.Context, id string) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	return clonePost(p), nil
}

func (r *memPosts) FindByAuthors(_ context.Context, authors []string, limit int) ([]*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := map[string]bool{}
	for _, a := range authors {
		set[a] = true
	}
	var out []*domain.Post
	for _, id := range r.order {
		if p, ok := r.byID[id]; ok && set[p.AuthorID] {
			out = append(out, clonePost(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memPosts) CountByAuthor(_ context.Context, author string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.byID {
		if p.AuthorID == author {
			n++
		}
	}
	return n, nil
}

func (r *memPosts) UpdateContent(_ context.Context, id string, c domain.PostContent, now time.Time) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	p.Text, p.Image, p.UpdatedAt = c.Text, c.Image, now
	return clonePost(p), nil
}

func (r *memPosts) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrPostNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memPosts) ToggleLike(_ context.Context, postID, accountID string) (*domain.Post, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[postID]
	if !ok {
		return nil, false, domain.ErrPostNotFound
	}
	for i, id := range p.Likes {
		if id == accountID {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			return clonePost(p), false, nil
		}
	}
	p.Likes = append(p.Likes, accountID)
	return clonePost(p), true, nil
}

func (r *memPosts) IncrementComments(_ context.Context, postID string, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[postID]
	if !ok {
		return domain.ErrPostNotFound
	}
	p.CommentCount += delta
	return nil
}

func (r *memPosts) PullLikes(_ context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		kept := p.Likes[:0]
		for _, id := range p.Likes {
			if id != accountID {
				kept = append(kept, id)
			}
		}
		p.Likes = kept
	}
	return nil
}

func (r *memPosts) DeleteByAuthor(_ context.Context, author string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []string
	for id, p := range r.byID {
		if p.AuthorID == author {
			removed = append(removed, id)
			delete(r.byID, id)
		}
	}
	return removed, nil
}

type memComments struct {
	mu    sync.Mutex
	order []string
	byID  map[string]*domain.Comment
}

func newMemComments() *memComments {
	return &memComments{byID: map[string]*domain.Comment{}}
}

func (r *memComments) Create(_ context.Context, c *domain.Comment) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	cp.ID = ids.next("comment")
	r.byID[cp.ID] = &cp
	r.order = append(r.order, cp.ID)
	out := cp
	return &out, nil
}

func (r *memComments) FindByID(_ context.Context, id string) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrCommentNotFound
	}
	cp := *c
	return &cp, nil
}

// newestFirst orders comments by created_at descending, later inserts first
// on ties, mirroring the (created_at, _id) sort of the Mongo repository.
func (r *memComments) newestFirst(postID string) []*domain.Comment {
	var out []*domain.Comment
	for i := len(r.order) - 1; i >= 0; i-- {
		if c, ok := r.byID[r.order[i]]; ok && c.PostID == postID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// position is the insertion index of id, or -1.
func (r *memComments) position(id string) int {
	for i, got := range r.order {
		if got == id {
			return i
		}
	}
	return -1
}

func (r *memComments) ListByPost(_ context.Context, postID string, cursor ports.CommentCursor, limit int) ([]*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cursorPos := r.position(cursor.BeforeID)
	var out []*domain.Comment
	for _, c := range r.newestFirst(postID) {
		if !cursor.Before.IsZero() {
			older := c.CreatedAt.Before(cursor.Before)
			tie := c.CreatedAt.Equal(cursor.Before) && cursorPos >= 0 && r.position(c.ID) < cursorPos
			if !older && !tie {
				continue
			}
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memComments) Recent(_ context.Context, postIDs []string, perPost int) (map[string][]*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string][]*domain.Comment{}
	for _, id := range postIDs {
		list := r.newestFirst(id)
		if len(list) > perPost {
			list = list[:perPost]
		}
		if len(list) > 0 {
			out[id] = list
		}
	}
	return out, nil
}

func (r *memComments) Delete(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return false, nil
	}
	delete(r.byID, id)
	return true, nil
}

func (r *memComments) DeleteByPosts(_ context.Context, postIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := map[string]bool{}
	for _, id := range postIDs {
		set[id] = true
	}
	for id, c := range r.byID {
		if set[c.PostID] {
			delete(r.byID, id)
		}
	}
	return nil
}

func (r *memComments) DeleteByAuthor(_ context.Context, author string) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]int64{}
	for id, c := range r.byID {
		if c.AuthorID == author {
			out[c.PostID]++
			delete(r.byID, id)
		}
	}
	return out, nil
}

type memMessages struct {
	mu    sync.Mutex
	order []string
	byID  map[string]*domain.Message
}

func newMemMessages() *memMessages {
	return &memMessages{byID: map[string]*domain.Message{}}
}

func (r *memMessages) Create(_ context.Context, m *domain.Message) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	cp.ID = ids.next("msg")
	r.byID[cp.ID] = &cp
	r.order = append(r.order, cp.ID)
	out := cp
	return &out, nil
}

func (r *memMessages) FindByID(_ context.Context, id string) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memMessages) Between(_ context.Context, a, b string) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Message
	for _, id := range r.order {
		m, ok := r.byID[id]
		if !ok {
			continue
		}
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memMessages) MarkDelivered(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return domain.ErrMessageNotFound
	}
	m.DeliveredAt = &at
	return nil
}

func (r *memMessages) MarkRead(_ context.Context, id string) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	m.Read = true
	cp := *m
	return &cp, nil
}

func (r *memMessages) MarkConversationRead(_ context.Context, receiver, sender string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, m := range r.byID {
		if m.ReceiverID == receiver && m.SenderID == sender && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (r *memMessages) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrMessageNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *memMessages) Conversations(_ context.Context, accountID string) ([]ports.ConversationSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byPeer := map[string]*ports.ConversationSummary{}
	var peers []string
	for i := len(r.order) - 1; i >= 0; i-- {
		m, ok := r.byID[r.order[i]]
		if !ok || !m.Involves(accountID) {
			continue
		}
		peer := m.Peer(accountID)
		row, seen := byPeer[peer]
		if !seen {
			cp := *m
			row = &ports.ConversationSummary{PeerID: peer, LastMessage: &cp}
			byPeer[peer] = row
			peers = append(peers, peer)
		}
		if m.ReceiverID == accountID && !m.Read {
			row.Unread++
		}
	}
	out := make([]ports.ConversationSummary, 0, len(peers))
	for _, p := range peers {
		out = append(out, *byPeer[p])
	}
	return out, nil
}

func (r *memMessages) DeleteByAccount(_ context.Context, accountID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, m := range r.byID {
		if m.Involves(accountID) {
			delete(r.byID, id)
		}
	}
	return nil
}

type memNotifications struct {
	mu    sync.Mutex
	order []string
	byID  map[string]*domain.Notification
}

func newMemNotifications() *memNotifications {
	return &memNotifications{byID: map[string]*domain.Notification{}}
}

func (r *memNotifications) Create(_ context.Context, n *domain.Notification) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	cp.ID = ids.next("notif")
	r.byID[cp.ID] = &cp
	r.order = append(r.order, cp.ID)
	out := cp
	return &out, nil
}

func (r *memNotifications) ListByRecipient(_ context.Context, recipient string, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Notification
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		n, ok := r.byID[r.order[i]]
		if !ok || n.RecipientID != recipient || (unreadOnly && n.Read) {
			continue
		}
		cp := *n
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memNotifications) MarkRead(_ context.Context, id, recipient string) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.byID[id]
	if !ok || n.RecipientID != recipient {
		return nil, domain.ErrNotificationNotFound
	}
	n.Read = true
	cp := *n
	return &cp, nil
}

func (r *memNotifications) MarkAllRead(_ context.Context, recipient string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var c int64
	for _, n := range r.byID {
		if n.RecipientID == recipient && !n.Read {
			n.Read = true
			c++
		}
	}
	return c, nil
}

func (r *memNotifications) DeleteByAccount(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, n := range r.byID {
		if n.RecipientID == id || n.ActorID == id {
			delete(r.byID, k)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Collaborator stubs.
// ---------------------------------------------------------------------------

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (n *recordingNotifier) Notify(x domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, x)
}

func (n *recordingNotifier) kinds() []domain.NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.NotificationKind, 0, len(n.sent))
	for _, x := range n.sent {
		out = append(out, x.Kind)
	}
	return out
}

type published struct {
	accountID string
	event     ports.Event
}

// stubRelay records publishes and reports delivery for online accounts only.
type stubRelay struct {
	mu     sync.Mutex
	online map[string]bool
	err    error
	events []published
}

func newStubRelay(online ...string) *stubRelay {
	r := &stubRelay{online: map[string]bool{}}
	for _, id := range online {
		r.online[id] = true
	}
	return r
}

func (r *stubRelay) Publish(_ context.Context, accountID string, ev ports.Event) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return false, r.err
	}
	r.events = append(r.events, published{accountID: accountID, event: ev})
	return r.online[accountID], nil
}

func (r *stubRelay) eventsFor(accountID string) []ports.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ports.Event
	for _, p := range r.events {
		if p.accountID == accountID {
			out = append(out, p.event)
		}
	}
	return out
}

type memDedup struct {
	mu        sync.Mutex
	seen      map[string]string
	lookupErr error

	// lookupMiss makes Lookup report nothing, as when a concurrent send has
	// not claimed its temp id yet.
	lookupMiss bool
}

func newMemDedup() *memDedup {
	return &memDedup{seen: map[string]string{}}
}

func (d *memDedup) Lookup(_ context.Context, sender, temp string) (string, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lookupErr != nil {
		return "", false, d.lookupErr
	}
	if d.lookupMiss {
		return "", false, nil
	}
	id, ok := d.seen[sender+":"+temp]
	return id, ok, nil
}

func (d *memDedup) Remember(_ context.Context, sender, temp, id string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := sender + ":" + temp
	if owner, ok := d.seen[key]; ok {
		return owner, nil
	}
	d.seen[key] = id
	return id, nil
}
