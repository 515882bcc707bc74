package chat

import (
	"regexp"
	"strings"
)

// The model embeds file operations in its prose using a small tag protocol:
//
//	<rename from_folder="F1" from_filename="N1" to_folder="F2" to_filename="N2" />
//	<delete folder="F" filename="N" />
//	<write folder="F" filename="N" description="D">...content...</write>
//	<chat-summary>...</chat-summary>
//
// Attribute values are double-quoted and appear in exactly this order; tags
// are case-insensitive and never nest. Write content is everything between
// the tags, trimmed once.

// Operation kinds, in application order.
const (
	OpRename = "rename"
	OpDelete = "delete"
	OpWrite  = "write"
)

// FileOp is one pending file operation extracted from a model response.
type FileOp struct {
	Kind string

	// Rename fields.
	FromFolder   string
	FromFilename string
	ToFolder     string
	ToFilename   string

	// Delete and write fields.
	Folder   string
	Filename string

	// Write fields.
	Description string
	Content     string
}

// ParseResult is the outcome of scanning one model response.
type ParseResult struct {
	// Reply is the user-visible prose: protocol tags removed, any residual
	// markup stripped down to its text, blank-line runs collapsed.
	Reply string

	// Summary is the chat-summary body, if the model emitted one. Extracted
	// and stripped from the reply; not otherwise consumed.
	Summary string

	// Ops holds the pending operations: all renames first, then all deletes,
	// then all writes, each group in source order. Later stages must apply
	// them in exactly this order - writes may target paths vacated by an
	// earlier rename or delete.
	Ops []FileOp
}

var (
	renamePattern  = regexp.MustCompile(`(?is)<rename\s+from_folder="([^"]*)"\s+from_filename="([^"]*)"\s+to_folder="([^"]*)"\s+to_filename="([^"]*)"\s*/?>`)
	deletePattern  = regexp.MustCompile(`(?is)<delete\s+folder="([^"]*)"\s+filename="([^"]*)"\s*/?>`)
	writePattern   = regexp.MustCompile(`(?is)<write\s+folder="([^"]*)"\s+filename="([^"]*)"\s+description="([^"]*)"\s*>(.*?)</write>`)
	summaryPattern = regexp.MustCompile(`(?is)<chat-summary>(.*?)</chat-summary>`)

	// Any leftover tag-shaped markup in the prose. The stored reply is plain
	// text; models occasionally decorate their answers with HTML.
	markupPattern = regexp.MustCompile(`(?s)</?[a-zA-Z!][^<>]*>`)

	blankRunPattern = regexp.MustCompile(`\n{3,}`)
)

// ParseResponse scans raw model output for the tag protocol and splits it into
// pending file operations and the visible reply.
func ParseResponse(raw string) *ParseResult {
	result := &ParseResult{}

	for _, m := range renamePattern.FindAllStringSubmatch(raw, -1) {
		result.Ops = append(result.Ops, FileOp{
			Kind:         OpRename,
			FromFolder:   m[1],
			FromFilename: m[2],
			ToFolder:     m[3],
			ToFilename:   m[4],
		})
	}

	for _, m := range deletePattern.FindAllStringSubmatch(raw, -1) {
		result.Ops = append(result.Ops, FileOp{
			Kind:     OpDelete,
			Folder:   m[1],
			Filename: m[2],
		})
	}

	for _, m := range writePattern.FindAllStringSubmatch(raw, -1) {
		result.Ops = append(result.Ops, FileOp{
			Kind:        OpWrite,
			Folder:      m[1],
			Filename:    m[2],
			Description: m[3],
			Content:     strings.TrimSpace(m[4]),
		})
	}

	if m := summaryPattern.FindStringSubmatch(raw); m != nil {
		result.Summary = strings.TrimSpace(m[1])
	}

	result.Reply = stripTags(raw)

	return result
}

// stripTags removes every protocol tag from the text, then reduces whatever
// markup remains to its plain text: blank-line runs collapse to one blank
// line, outer whitespace is trimmed, embedded line breaks survive.
func stripTags(raw string) string {
	text := renamePattern.ReplaceAllString(raw, "")
	text = deletePattern.ReplaceAllString(text, "")
	text = writePattern.ReplaceAllString(text, "")
	text = summaryPattern.ReplaceAllString(text, "")

	// Protocol tags are gone; anything still tag-shaped is stray markup in
	// the prose. Drop the tags, keep their inner text.
	text = markupPattern.ReplaceAllString(text, "")

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}
