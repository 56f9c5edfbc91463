package worker

import (
	"github.com/streetburger/issuedesk/internal/service"
)

// StartNotificationWorker registers notification handlers and returns the
// function that releases them.
func StartNotificationWorker(notificationService *service.NotificationService) func() {
	if notificationService == nil {
		return func() {}
	}
	notificationService.RegisterHandlers()
	return notificationService.Close
}
