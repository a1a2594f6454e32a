package safe

import (
	"context"
	"io"

	"github.com/Nathan-c-cloud/agentGCP-veille/pkg/utils/logging"
)

// Close closes a reader whose Close error has nowhere useful to go, such
// as HTTP response bodies and storage object readers. The error is logged
// instead of dropped. Nil closers are ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Warn("failed to close", "error", err)
	}
}
