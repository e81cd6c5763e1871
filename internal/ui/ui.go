// Package ui keeps recent runs and renders them as HTML.
package ui

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"

	"github.com/ccastromar/aos-research-team/internal/guard"
	"github.com/ccastromar/aos-research-team/internal/logx"
	"github.com/ccastromar/aos-research-team/internal/pipeline"
	"github.com/ccastromar/aos-research-team/internal/team"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Runner is the part of team.Team the UI needs.
type Runner interface {
	RunState(ctx context.Context, topic string) (*pipeline.State, error)
	Overview() team.Overview
}

var stageFields = []struct {
	name  string
	field pipeline.Field
}{
	{"researcher", pipeline.FieldResearch},
	{"writer", pipeline.FieldDraft},
	{"reviewer", pipeline.FieldReview},
	{"finalizer", pipeline.FieldResult},
}

type UI struct {
	store        *RunStore
	runner       Runner
	defaultTopic string
	tpl          *template.Template
	md           goldmark.Markdown
}

func New(store *RunStore, runner Runner, defaultTopic string) (*UI, error) {
	tpl, err := template.New("ui").Funcs(template.FuncMap{
		"since": func(d time.Duration) string { return d.Round(time.Millisecond).String() },
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &UI{
		store:        store,
		runner:       runner,
		defaultTopic: defaultTopic,
		tpl:          tpl,
		md:           goldmark.New(),
	}, nil
}

func (u *UI) Store() *RunStore { return u.store }

// Execute validates topic, runs the team and stores the outcome. The returned
// error is only set for invalid input; a failed run is stored with
// StatusError and returned normally.
func (u *UI) Execute(ctx context.Context, topic string) (Run, error) {
	cleaned, err := guard.ValidateTopic(topic)
	if err != nil {
		return Run{}, err
	}

	started := time.Now()
	timer := logx.Start(nil, cleaned, "UI", "run")
	st, runErr := u.runner.RunState(ctx, cleaned)
	timer.End()

	run := Run{
		Topic:     cleaned,
		Status:    StatusOK,
		StartedAt: started,
		Duration:  time.Since(started),
	}
	if st != nil {
		run.Result = st.Result
		run.Logs = st.Logs
		for _, sf := range stageFields {
			run.Stages = append(run.Stages, StageOutput{Name: sf.name, Field: sf.field.String(), Output: st.Get(sf.field)})
		}
	}
	if runErr != nil {
		run.Status = StatusError
		run.Error = runErr.Error()
	}

	run = u.store.Add(run)
	if runErr != nil {
		logx.Error("UI", "run %s failed: %v", run.ID, runErr)
	} else {
		logx.Info("UI", "run %s completed in %s", run.ID, run.Duration.Round(time.Millisecond))
	}
	return run, nil
}

// Routes mounts the HTML pages.
func (u *UI) Routes(r chi.Router) {
	r.Get("/", u.HandleIndex)
	r.Post("/run", u.HandleRun)
	r.Get("/runs/{id}", u.HandleRunPage)
}

type indexPage struct {
	Overview     team.Overview
	Runs         []Run
	DefaultTopic string
	Error        string
}

func (u *UI) HandleIndex(w http.ResponseWriter, r *http.Request) {
	u.renderIndex(w, http.StatusOK, "")
}

func (u *UI) renderIndex(w http.ResponseWriter, status int, errMsg string) {
	u.render(w, status, "index.html", indexPage{
		Overview:     u.runner.Overview(),
		Runs:         u.store.Recent(0),
		DefaultTopic: u.defaultTopic,
		Error:        errMsg,
	})
}

// HandleRun runs the team synchronously and redirects to the run page.
func (u *UI) HandleRun(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		u.renderIndex(w, http.StatusBadRequest, "invalid form")
		return
	}
	run, err := u.Execute(r.Context(), r.PostFormValue("topic"))
	if err != nil {
		u.renderIndex(w, http.StatusBadRequest, err.Error())
		return
	}
	http.Redirect(w, r, "/ui/runs/"+run.ID, http.StatusSeeOther)
}

type runPage struct {
	Run        Run
	ResultHTML template.HTML
	Stages     []stageView
}

type stageView struct {
	Title  string
	Output template.HTML
}

func (u *UI) HandleRunPage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, ok := u.store.Get(id)
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	page := runPage{Run: run, ResultHTML: u.markdown(run.Result)}
	for _, s := range run.Stages {
		page.Stages = append(page.Stages, stageView{Title: pipeline.Title(s.Name), Output: u.markdown(s.Output)})
	}
	u.render(w, http.StatusOK, "run.html", page)
}

// markdown renders model output. goldmark escapes raw HTML by default, so
// the result is safe to embed.
func (u *UI) markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := u.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

func (u *UI) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := u.tpl.ExecuteTemplate(&buf, name, data); err != nil {
		logx.Error("UI", "render %s: %v", name, err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
