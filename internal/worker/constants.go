package worker

// Log messages
const (
	LogMsgWorkerJobFailed = "Worker job failed"
)

// ErrMsgPoolClosed is the message of ErrPoolClosed
const ErrMsgPoolClosed = "worker pool closed"
