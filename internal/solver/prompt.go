package solver

import (
	"bytes"
	_ "embed"
	"text/template"
)

//go:embed equation_prompt.md
var equationPrompt string

//go:embed word_problem_prompt.md
var wordProblemPrompt string

var (
	equationTmpl    = template.Must(template.New("equation").Parse(equationPrompt))
	wordProblemTmpl = template.Must(template.New("word_problem").Parse(wordProblemPrompt))
)

type promptData struct {
	Input string
}

// BuildEquationPrompt embeds the equation verbatim into the solving
// instructions and the required JSON schema. Input is not validated.
func BuildEquationPrompt(expression string) (string, error) {
	return execute(equationTmpl, expression)
}

// BuildWordProblemPrompt does the same for a natural-language problem.
func BuildWordProblemPrompt(problem string) (string, error) {
	return execute(wordProblemTmpl, problem)
}

func execute(tmpl *template.Template, input string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, promptData{Input: input}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
