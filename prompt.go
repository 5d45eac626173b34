package taskfn

import (
	"encoding/json"
	"strings"
)

const returnInstruction = "Return ONLY valid JSON that matches the return type exactly. " +
	"No explanations, no markdown formatting."

// BuildPrompt renders req as the text sent to a model. It is a pure function of req:
// function identity, task intent, arguments, return type (description and JSON Schema),
// the available tools as context, and the instruction to answer with bare JSON.
func BuildPrompt(req *Request) string {
	var b strings.Builder
	b.WriteString("Function: ")
	b.WriteString(req.FunctionName)
	b.WriteString("\nTask: ")
	prompt := req.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}
	b.WriteString(prompt)
	b.WriteString("\nArguments: ")
	b.WriteString(indentJSON(req.Arguments))
	b.WriteString("\nReturn Type: ")
	b.WriteString(req.ReturnType.String())
	if schema := req.ReturnType.SchemaMap(); len(schema) > 0 {
		b.WriteString("\nReturn Schema: ")
		b.WriteString(compactJSON(schema))
	}
	if len(req.AvailableTools) > 0 {
		b.WriteString("\nAvailable Tools:")
		for _, e := range sortedEntries(req.AvailableTools) {
			writeTool(&b, e)
		}
	}
	b.WriteString("\n\n")
	b.WriteString(returnInstruction)
	b.WriteString("\n")
	return b.String()
}

func writeTool(b *strings.Builder, e ToolEntry) {
	b.WriteString("\n- ")
	b.WriteString(e.Identity)
	b.WriteString(": ")
	b.WriteString(e.Name)
	b.WriteString("(")
	for i, p := range e.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		if !p.Required {
			b.WriteString("?")
		}
		b.WriteString(" ")
		b.WriteString(p.Type.String())
	}
	b.WriteString(") -> ")
	b.WriteString(e.ReturnType.String())
	if doc := strings.TrimSpace(e.Doc); doc != "" {
		for line := range strings.SplitSeq(doc, "\n") {
			b.WriteString("\n    ")
			b.WriteString(strings.TrimSpace(line))
		}
	}
}

func indentJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}
