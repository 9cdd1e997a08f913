package chat

import "errors"

var errSendClosed = errors.New("output closed")
