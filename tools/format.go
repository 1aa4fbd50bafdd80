package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/archscan/archscan-mcp/index"
	"github.com/dustin/go-humanize"
)

// FormatFileResults formats catalog search results as human-readable text.
func FormatFileResults(files []*index.ScannedFile, nameOnly bool) string {
	if len(files) == 0 {
		return "No files matched."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d files:\n\n", len(files)))

	for _, file := range files {
		if nameOnly {
			builder.WriteString(file.RelativePath)
			builder.WriteString("\n")
		} else {
			builder.WriteString(fmt.Sprintf("  %s  (%s, %s, %d lines)\n",
				file.RelativePath,
				file.Language,
				humanize.Bytes(uint64(file.SizeBytes)),
				file.LineCount,
			))
		}
	}

	return builder.String()
}

// FormatResultHits formats result search hits as human-readable text,
// one hit per block with its payload fragment.
func FormatResultHits(hits []index.Hit) string {
	if len(hits) == 0 {
		return "No matches found."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d matching results:\n\n", len(hits)))

	for i, hit := range hits {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(fmt.Sprintf("── %s (%s) ──\n", hit.Path, hit.Language))
		if hit.Fragment != "" {
			builder.WriteString(fmt.Sprintf("  %s\n", hit.Fragment))
		}
	}

	return builder.String()
}

// FormatResultPayload pretty-prints one file's analysis payload under a
// header line.
func FormatResultPayload(filePath string, payload string) string {
	var pretty bytes.Buffer
	body := payload
	if err := json.Indent(&pretty, []byte(payload), "", "  "); err == nil {
		body = pretty.String()
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("── %s ──\n", filePath))
	builder.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		builder.WriteString("\n")
	}
	return builder.String()
}
