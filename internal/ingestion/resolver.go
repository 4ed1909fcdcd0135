package ingestion

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"

	"solana-derivative-lab/internal/solana"
	"solana-derivative-lab/internal/storage"
)

// ValidateMint checks that a mint address is a well-formed Solana public key:
// base58-decodable to exactly 32 bytes.
func ValidateMint(mint string) error {
	if mint == "" {
		return fmt.Errorf("%w: empty mint", storage.ErrInvalidInput)
	}
	decoded, err := base58.Decode(mint)
	if err != nil {
		return fmt.Errorf("%w: mint %q is not base58", storage.ErrInvalidInput, mint)
	}
	if len(decoded) != 32 {
		return fmt.Errorf("%w: mint %q decodes to %d bytes, want 32", storage.ErrInvalidInput, mint, len(decoded))
	}
	return nil
}

// ResolvedMetadata is the on-chain name and symbol for a mint.
type ResolvedMetadata struct {
	Name   string
	Symbol string
}

// MetadataResolver reads token name and symbol from the Metaplex metadata
// account of a mint.
type MetadataResolver struct {
	rpc solana.RPCClient
}

// NewMetadataResolver creates a resolver backed by the given RPC client.
func NewMetadataResolver(rpc solana.RPCClient) *MetadataResolver {
	return &MetadataResolver{rpc: rpc}
}

// Resolve fetches and parses the metadata account for a mint.
// Returns storage.ErrNotFound if the mint has no metadata account.
func (r *MetadataResolver) Resolve(ctx context.Context, mint string) (*ResolvedMetadata, error) {
	if err := ValidateMint(mint); err != nil {
		return nil, err
	}

	pda, err := MetadataPDA(mint)
	if err != nil {
		return nil, fmt.Errorf("derive metadata pda: %w", err)
	}

	info, err := r.rpc.GetAccountInfo(ctx, pda)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata account: %w", err)
	}
	if info == nil || info.Data == "" {
		return nil, fmt.Errorf("%w: no metadata account for mint %s", storage.ErrNotFound, mint)
	}

	meta, err := parseMetadataAccount(info.Data)
	if err != nil {
		return nil, fmt.Errorf("parse metadata for mint %s: %w", mint, err)
	}
	return meta, nil
}

// parseMetadataAccount parses the borsh-serialized Metaplex metadata layout:
// key(1) | update_authority(32) | mint(32) | name(u32 len + bytes) |
// symbol(u32 len + bytes) | ...
// Name and symbol fields are fixed-width and zero-padded on chain.
func parseMetadataAccount(data string) (*ResolvedMetadata, error) {
	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("decode account data: %w", err)
	}

	offset := 1 + 32 + 32
	if len(decoded) < offset+4 {
		return nil, fmt.Errorf("metadata account too short: %d bytes", len(decoded))
	}

	nameLen := binary.LittleEndian.Uint32(decoded[offset:])
	offset += 4
	if nameLen > 100 || offset+int(nameLen) > len(decoded) {
		return nil, fmt.Errorf("invalid name length %d", nameLen)
	}
	name := strings.TrimRight(string(decoded[offset:offset+int(nameLen)]), "\x00")
	offset += int(nameLen)

	if len(decoded) < offset+4 {
		return nil, fmt.Errorf("metadata account truncated before symbol")
	}
	symbolLen := binary.LittleEndian.Uint32(decoded[offset:])
	offset += 4
	if symbolLen > 20 || offset+int(symbolLen) > len(decoded) {
		return nil, fmt.Errorf("invalid symbol length %d", symbolLen)
	}
	symbol := strings.TrimRight(string(decoded[offset:offset+int(symbolLen)]), "\x00")

	return &ResolvedMetadata{Name: name, Symbol: symbol}, nil
}
