package notify

import "errors"

var ErrNotifierClosed = errors.New("notifier is closed")
