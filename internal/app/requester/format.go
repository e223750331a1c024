package requester

import (
	"ImageValidator/internal/service"
	"fmt"
	"io"

	"github.com/nao1215/markdown"
)

const labelTraceID = "Trace ID"

func detailFields(criterion string, result service.ValidationResult) []Field {
	verdict := "The image does not meet the validation criteria."
	if result.Passes {
		verdict = "The image meets the validation criteria."
	}

	fields := []Field{
		{Label: "Status", Value: status(result.Passes)},
		{Label: "Brief Description", Value: result.Description},
		{Label: "Validation Criteria", Value: criterion},
		{Label: "Result", Value: verdict},
	}
	if result.TraceID != "" {
		fields = append(fields, Field{Label: labelTraceID, Value: result.TraceID})
	}
	return fields
}

// formatDetails собирает markdown для JSON и WebSocket. Trace ID уходит в заметку в конце.
func formatDetails(fields []Field) string {
	md := markdown.NewMarkdown(io.Discard)

	var traceID string
	for _, f := range fields {
		if f.Label == labelTraceID {
			traceID = f.Value
			continue
		}
		md.PlainTextf("**%s:** %s", f.Label, f.Value)
		md.PlainText("")
	}
	if traceID != "" {
		md.Note(fmt.Sprintf("Trace ID `%s`: search the server logs or your tracing backend for this ID.", traceID))
	}

	return md.String()
}
