package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/slok/opentown/internal/model"
)

//go:embed templates/*.tmpl
var templateFiles embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"add": func(a, b int) int { return a + b },
}).ParseFS(templateFiles, "templates/*.tmpl"))

// CEOData is the data of the CEO breakdown prompt.
type CEOData struct {
	ProjectName string
	Tasks       []model.Task
}

// ManagerData is the data of the manager prompt.
type ManagerData struct {
	ProjectName string
	Task        model.Task
}

// EngineerData is the data of the engineer assignment prompt.
type EngineerData struct {
	EngineerID   string
	SubtaskID    string
	SubtaskDesc  string
	Branch       string
	WorktreePath string
}

// QAData is the data of the QA merge prompt and steps.
type QAData struct {
	ProjectName string
	Branches    []string
	BaseBranch  string
	TestCommand string
}

// CEO renders the task breakdown prompt.
func CEO(d CEOData) (string, error) { return render("ceo.tmpl", d) }

// Manager renders the manager prompt.
func Manager(d ManagerData) (string, error) { return render("manager.tmpl", d) }

// Engineer renders the engineer assignment prompt.
func Engineer(d EngineerData) (string, error) { return render("engineer.tmpl", d) }

// QA renders the QA merge prompt.
func QA(d QAData) (string, error) { return render("qa.tmpl", d) }

// QASteps renders the numbered manual merge steps.
func QASteps(d QAData) (string, error) { return render("qa_steps.tmpl", d) }

func render(name string, data any) (string, error) {
	var b bytes.Buffer
	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("could not render %s prompt: %w", name, err)
	}
	return b.String(), nil
}
