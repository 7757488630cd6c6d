package channel

import (
	"strings"

	"github.com/flemzord/cronbot/pkg/message"
)

// ChunkConfig controls how outbound messages are split when they exceed
// a platform's maximum message length.
type ChunkConfig struct {
	// MaxLength is the maximum number of bytes per chunk.
	// A value <= 0 means no splitting.
	MaxLength int

	// PreserveBlocks avoids splitting inside fenced code blocks (``` ... ```).
	// When true, a code block that fits within MaxLength is kept intact even
	// if it would otherwise be split at a line boundary.
	PreserveBlocks bool
}

// SplitMessage splits an outbound message into messages whose text each
// respect cfg.MaxLength. If the message already fits, a single-element
// slice is returned.
func SplitMessage(msg message.OutboundMessage, cfg ChunkConfig) []message.OutboundMessage {
	if cfg.MaxLength <= 0 || len(msg.Text) <= cfg.MaxLength {
		return []message.OutboundMessage{msg}
	}

	chunks := splitText(msg.Text, cfg)
	result := make([]message.OutboundMessage, 0, len(chunks))
	for i, chunk := range chunks {
		out := msg
		out.Text = chunk
		if i > 0 {
			// Only the first chunk is threaded as a reply.
			out.ReplyToID = ""
		}
		result = append(result, out)
	}
	return result
}

// splitText packs whole lines into chunks of at most cfg.MaxLength bytes.
// With PreserveBlocks, a fenced code block is kept in one chunk as long as
// that chunk stays under twice the limit.
func splitText(text string, cfg ChunkConfig) []string {
	var (
		chunks  []string
		current strings.Builder
		inFence bool
	)
	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimRight(current.String(), "\n"))
			current.Reset()
		}
	}

	for _, line := range strings.Split(text, "\n") {
		fence := strings.HasPrefix(strings.TrimSpace(line), "```")
		closing := fence && inFence
		if fence {
			inFence = !inFence
		}

		if current.Len()+len(line)+1 > cfg.MaxLength {
			keep := cfg.PreserveBlocks && (inFence || closing) && current.Len() < 2*cfg.MaxLength
			if !keep {
				flush()
				if len(line)+1 > cfg.MaxLength {
					chunks = append(chunks, forceSplit(line, cfg.MaxLength)...)
					continue
				}
			}
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	flush()
	return chunks
}

// forceSplit cuts a line longer than maxLen into maxLen-byte pieces.
func forceSplit(line string, maxLen int) []string {
	parts := make([]string, 0, len(line)/maxLen+1)
	for len(line) > maxLen {
		parts = append(parts, line[:maxLen])
		line = line[maxLen:]
	}
	if line != "" {
		parts = append(parts, line)
	}
	return parts
}
