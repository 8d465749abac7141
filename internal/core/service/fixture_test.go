package service

import (
	"github.com/rs/zerolog"

	"github.com/connectify/social-api/internal/core/ports"
)

// world wires every service over fresh in-memory stores.
type world struct {
	accounts      *memAccounts
	follows       *memFollows
	posts         *memPosts
	comments      *memComments
	messages      *memMessages
	notifications *memNotifications
	relay         *stubRelay
	dedup         *memDedup
	notifier      *recordingNotifier

	social ports.SocialService
	post   ports.PostService
	msg    ports.MessageService
	notify ports.NotificationService
}

func newWorld(online ...string) *world {
	w := &world{
		accounts:      newMemAccounts(),
		follows:       &memFollows{},
		posts:         newMemPosts(),
		comments:      newMemComments(),
		messages:      newMemMessages(),
		notifications: newMemNotifications(),
		relay:         newStubRelay(online...),
		dedup:         newMemDedup(),
		notifier:      &recordingNotifier{},
	}
	log := zerolog.Nop()
	w.social = NewSocialService(w.accounts, w.follows, w.notifier, log)
	w.post = NewPostService(w.accounts, w.follows, w.posts, w.comments, w.notifier, log)
	w.msg = NewMessageService(w.accounts, w.messages, w.relay, w.dedup, w.notifier, log)
	w.notify = NewNotificationService(w.accounts, w.notifications, w.relay, log)
	return w
}

func (w *world) repos() AccountRepositories {
	return AccountRepositories{
		Accounts:      w.accounts,
		Follows:       w.follows,
		Posts:         w.posts,
		Comments:      w.comments,
		Messages:      w.messages,
		Notifications: w.notifications,
	}
}
