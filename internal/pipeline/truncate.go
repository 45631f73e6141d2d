// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/mlip-agent/pkg/types"
)

// blockSeparator joins retrieved context blocks.
const blockSeparator = "\n\n"

// joinBlocks concatenates whole blocks, separated by blank lines, without
// exceeding charCap runes. Truncation drops whole trailing blocks rather
// than cutting one mid-way; only when the very first block alone exceeds
// the cap is it hard-cut, so the bound always holds. charCap <= 0 means
// unbounded.
func joinBlocks(blocks []string, charCap int) string {
	if charCap <= 0 {
		return strings.Join(blocks, blockSeparator)
	}

	var kept []string
	total := 0
	for i, block := range blocks {
		cost := utf8.RuneCountInString(block)
		if i > 0 {
			cost += utf8.RuneCountInString(blockSeparator)
		}
		if total+cost > charCap {
			if i == 0 {
				runes := []rune(block)
				if charCap < len(runes) {
					return string(runes[:charCap])
				}
				return block
			}
			break
		}
		kept = append(kept, block)
		total += cost
	}
	return strings.Join(kept, blockSeparator)
}

// chunkBlocks renders retrieval chunks as self-contained context blocks,
// one per chunk, tagged with their source location.
func chunkBlocks(chunks []types.RetrievalChunk) []string {
	blocks := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		if ch.Page > 0 {
			blocks = append(blocks, fmt.Sprintf("[%s p.%d] %s", ch.Source, ch.Page, ch.Text))
		} else {
			blocks = append(blocks, fmt.Sprintf("[%s] %s", ch.Source, ch.Text))
		}
	}
	return blocks
}
