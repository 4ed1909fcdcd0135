package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface used by ingestion.
type RPCClient interface {
	// GetAccountInfo retrieves account info by public key. Returns nil if not found.
	GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error)

	// GetTokenSupply retrieves the total supply of an SPL token mint.
	GetTokenSupply(ctx context.Context, mint string) (*TokenSupply, error)

	// GetSlot retrieves the current slot.
	GetSlot(ctx context.Context) (int64, error)

	// GetBlockTime retrieves the estimated production time of a block.
	GetBlockTime(ctx context.Context, slot int64) (*int64, error)
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64
	Owner      string
	Data       string // base64 encoded
	Executable bool
	RentEpoch  uint64
}

// TokenSupply represents SPL token supply information.
type TokenSupply struct {
	Amount   string // raw amount as decimal string
	Decimals int
	UIAmount float64
}
