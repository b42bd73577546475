package importer

import "log/slog"

// ProgressReporter receives incremental import progress. Implementations
// must tolerate being called from the importing goroutine.
type ProgressReporter interface {
	Start(total int)
	Progress(done, total int)
	RowError(row int, err error)
	Complete(result *Result)
}

// NullProgress discards all progress events.
type NullProgress struct{}

func (NullProgress) Start(int)           {}
func (NullProgress) Progress(int, int)   {}
func (NullProgress) RowError(int, error) {}
func (NullProgress) Complete(*Result)    {}

// LogProgress reports progress through a structured logger.
type LogProgress struct {
	Logger *slog.Logger
}

func (p LogProgress) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p LogProgress) Start(total int) {
	p.logger().Info("import started", "rows", total)
}

func (p LogProgress) Progress(done, total int) {
	// Log every 100 rows to keep large imports readable.
	if done%100 == 0 || done == total {
		p.logger().Info("import progress", "done", done, "total", total)
	}
}

func (p LogProgress) RowError(row int, err error) {
	p.logger().Warn("import row failed", "row", row, "error", err)
}

func (p LogProgress) Complete(result *Result) {
	p.logger().Info("import complete", "summary", result.Summary())
}

// ProgressEvent is one progress update delivered by ChannelProgress.
type ProgressEvent struct {
	Done   int     `json:"done"`
	Total  int     `json:"total"`
	Row    int     `json:"row,omitempty"`
	Error  string  `json:"error,omitempty"`
	Result *Result `json:"result,omitempty"`
}

// ChannelProgress streams progress events to a channel, for callers that
// relay progress elsewhere. Events are dropped rather than blocking the
// import when the receiver lags.
type ChannelProgress struct {
	C chan ProgressEvent
}

// NewChannelProgress creates a reporter with a buffered event channel.
func NewChannelProgress(buffer int) *ChannelProgress {
	return &ChannelProgress{C: make(chan ProgressEvent, buffer)}
}

func (p *ChannelProgress) send(ev ProgressEvent) {
	select {
	case p.C <- ev:
	default:
	}
}

func (p *ChannelProgress) Start(total int) {
	p.send(ProgressEvent{Total: total})
}

func (p *ChannelProgress) Progress(done, total int) {
	p.send(ProgressEvent{Done: done, Total: total})
}

func (p *ChannelProgress) RowError(row int, err error) {
	p.send(ProgressEvent{Row: row, Error: err.Error()})
}

func (p *ChannelProgress) Complete(result *Result) {
	p.send(ProgressEvent{Done: result.Total, Total: result.Total, Result: result})
	close(p.C)
}
