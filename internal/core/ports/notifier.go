package ports

import "github.com/connectify/social-api/internal/core/domain"

// Notifier accepts notifications for asynchronous delivery. Notify never blocks.
type Notifier interface {
	Notify(n domain.Notification)
}
