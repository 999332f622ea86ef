package emitter

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/dgallion1/md2docx/internal/docx"
)

// highlight splits code into runs colored by a chroma style. It returns
// nil when tokenizing fails, leaving the caller to emit plain text.
func highlight(code, language, styleName string, base docx.RunProps) []docx.Inline {
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	style := chromastyles.Get(styleName)

	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return nil
	}
	var out []docx.Inline
	for _, tok := range it.Tokens() {
		entry := style.Get(tok.Type)
		props := base
		if entry.Colour.IsSet() {
			props.Color = strings.ToUpper(strings.TrimPrefix(entry.Colour.String(), "#"))
		}
		if entry.Bold == chroma.Yes {
			props.Bold = true
		}
		if entry.Italic == chroma.Yes {
			props.Italic = true
		}
		appendText(&out, props, tok.Value)
	}

	// Lexers ensure a trailing newline the source did not have.
	for len(out) > 0 {
		last := out[len(out)-1].(*docx.Run)
		last.Text = strings.TrimRight(last.Text, "\n")
		if last.Text != "" {
			break
		}
		out = out[:len(out)-1]
	}
	return out
}
