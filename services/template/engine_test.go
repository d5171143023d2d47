package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_BothSyntaxes(t *testing.T) {
	vars := map[string]string{"name": "Alice", "company": "Acme"}

	out := Render("Hi [name], welcome to {{company}}. Bye [name]!", vars)
	assert.Equal(t, "Hi Alice, welcome to Acme. Bye Alice!", out)
}

func TestRender_AbsentKeysLeftUntouched(t *testing.T) {
	vars := map[string]string{"name": "Alice"}

	out := Render("Hi [name], your plan is [plan] ({{tier}})", vars)
	assert.Equal(t, "Hi Alice, your plan is [plan] ({{tier}})", out)
}

func TestRender_NoPlaceholdersIsIdentity(t *testing.T) {
	template := "<h1>Static content</h1>"
	assert.Equal(t, template, Render(template, map[string]string{"name": "Alice"}))
	assert.Equal(t, template, Render(template, nil))
}

func TestRender_ValueContainingPlaceholder(t *testing.T) {
	// A substituted value is never re-scanned
	vars := map[string]string{"a": "[b]", "b": "boom"}

	out := Render("start [a] end", vars)
	assert.Equal(t, "start [b] end", out)
}

func TestRender_CaseSensitiveNames(t *testing.T) {
	vars := map[string]string{"Name": "Alice"}

	out := Render("[Name] vs [name]", vars)
	assert.Equal(t, "Alice vs [name]", out)
}

func TestRender_NamesWithSpaces(t *testing.T) {
	vars := map[string]string{"University Name": "MIT"}

	out := Render("Welcome to [University Name]!", vars)
	assert.Equal(t, "Welcome to MIT!", out)
}

func TestExtractVariables(t *testing.T) {
	vars := ExtractVariables("<h1>Hello [name]!</h1><p>Your email is [email]</p>")
	assert.ElementsMatch(t, []string{"name", "email"}, vars)
}

func TestExtractVariables_BothSyntaxesDeduplicated(t *testing.T) {
	vars := ExtractVariables("[name] {{name}} {{company}}")
	assert.ElementsMatch(t, []string{"name", "company"}, vars)
}

func TestExtractVariables_ReservedConditionalComments(t *testing.T) {
	vars := ExtractVariables("<!--[if !mso]>--><p>Test</p><!--<![endif]-->")
	assert.Empty(t, vars)

	vars = ExtractVariables("<!--[if mso 9]><![endif]--><h1>[Student Name]</h1>")
	assert.ElementsMatch(t, []string{"Student Name"}, vars)
}

func TestExtractVariables_NameShapes(t *testing.T) {
	vars := ExtractVariables("[first-name] [last_name] [University Name] [2bad] [x2]")
	assert.ElementsMatch(t, []string{"first-name", "last_name", "University Name", "x2"}, vars)
}

func TestValidateTemplate(t *testing.T) {
	result := ValidateTemplate("Hi [name] from {{company}}", []string{"name", "company"})
	assert.True(t, result.Valid)
	assert.Empty(t, result.Missing)
	assert.ElementsMatch(t, []string{"name", "company"}, result.Found)

	result = ValidateTemplate("Hi [name]", []string{"name", "company"})
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"company"}, result.Missing)
}

func TestHTMLToText(t *testing.T) {
	text := HTMLToText("<h1>Hello</h1><p>This is <b>bold</b> text</p>")
	assert.Equal(t, "Hello This is bold text", text)
}

func TestHTMLToText_Empty(t *testing.T) {
	assert.Equal(t, "", HTMLToText(""))
	assert.Equal(t, "", HTMLToText("<div><span></span></div>"))
}

func TestHTMLToText_Entities(t *testing.T) {
	assert.Equal(t, "Fish & Chips", HTMLToText("<p>Fish &amp; Chips</p>"))
}
