package service

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter is the token-counting oracle used by the chunker.
type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter counts tokens with the BPE encoding of the configured
// chat model, falling back to cl100k_base for unknown models.
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

func NewTokenCounter(model string) (*TiktokenCounter, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("failed to load token encoding: %w", err)
		}
	}
	return &TiktokenCounter{encoding: encoding}, nil
}

func (c *TiktokenCounter) Count(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}
