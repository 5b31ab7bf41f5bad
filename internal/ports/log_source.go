package ports

import (
	"context"

	"github.com/takepile/pilekeeper/internal/domain"
)

// LogSource replays the decoded event stream of a pile contract.
type LogSource interface {
	// PileEvents returns every decodable event emitted by the pile in
	// [fromBlock, toBlock], ascending by block and log index. toBlock == 0
	// means the latest block. Logs that do not decode against the pile ABI
	// are skipped; a retrieval failure returns an error and no events.
	PileEvents(ctx context.Context, pile domain.Pile, fromBlock, toBlock uint64) ([]domain.PileEvent, error)
}
