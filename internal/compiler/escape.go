package compiler

import "strings"

// Characters with meaning in ffmpeg's filter-graph string grammar. Each is
// escaped with a single backslash so the compiled drawtext expression
// round-trips exactly: UnescapeText(EscapeText(s)) == s for any s.
var (
	textEscaper = strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`[`, `\[`,
		`]`, `\]`,
		`:`, `\:`,
		`,`, `\,`,
		`;`, `\;`,
	)
	textUnescaper = strings.NewReplacer(
		`\\`, `\`,
		`\'`, `'`,
		`\[`, `[`,
		`\]`, `]`,
		`\:`, `:`,
		`\,`, `,`,
		`\;`, `;`,
	)
)

// EscapeText escapes overlay text for safe embedding inside a drawtext
// text='...' value.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// UnescapeText reverses EscapeText.
func UnescapeText(s string) string {
	return textUnescaper.Replace(s)
}
