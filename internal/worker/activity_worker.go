package worker

import (
	"github.com/spec-kit/account-service/internal/service"
)

// StartActivityWorker registers the activity recorder's event handlers.
func StartActivityWorker(recorder *service.ActivityRecorder) {
	if recorder == nil {
		return
	}
	recorder.RegisterHandlers()
}
