package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/devbasics/internal/adapters/repository"
	service "github.com/okian/devbasics/internal/app"
	"github.com/okian/devbasics/internal/config"
	"github.com/okian/devbasics/internal/domain/model"
	"github.com/okian/devbasics/internal/domain/scoring"
	"github.com/okian/devbasics/internal/domain/survey"
	"github.com/okian/devbasics/internal/domain/types"
	"github.com/okian/devbasics/internal/session"
)

// run executes the root command with args and returns stdout.
func run(args ...string) (string, error) {
	root := newRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvEnvFile, filepath.Join(dir, "missing.env"))
	t.Setenv(config.EnvConfig, "")
	t.Setenv("DEVBASICS_STORE_DIR", "")
	return dir
}

func TestPreviewCommand(t *testing.T) {
	dir := isolateEnv(t)

	convey.Convey("Given the preview command", t, func() {
		convey.Convey("When run without a file", func() {
			out, err := run("preview")

			convey.Convey("Then the default answers are previewed", func() {
				convey.So(err, convey.ShouldBeNil)
				var p scoring.Preview
				convey.So(json.Unmarshal([]byte(out), &p), convey.ShouldBeNil)
				convey.So(p, convey.ShouldResemble, scoring.Evaluate(survey.DefaultState()))
			})
		})

		convey.Convey("When run with a YAML answers file", func() {
			path := filepath.Join(dir, "answers.yaml")
			convey.So(os.WriteFile(path, []byte(`
profile:
  name: Аня
selected_areas: ["Медицина"]
work_focus: люди
work_style: гибрид
study_depth: гибко
values:
  autonomy: 10
  income: 90
skills: "Python"
`), 0o600), convey.ShouldBeNil)

			out, err := run("preview", path)

			convey.Convey("Then the file answers are evaluated", func() {
				convey.So(err, convey.ShouldBeNil)
				want := scoring.Evaluate(survey.State{
					Profile:    survey.Profile{Name: "Аня"},
					Areas:      []string{"Медицина"},
					WorkFocus:  survey.FocusPeople,
					WorkStyle:  survey.StyleHybrid,
					StudyDepth: survey.DepthFlexible,
					Values:     survey.Values{survey.ValueAutonomy: 10, survey.ValueIncome: 90},
					Skills:     "Python",
				})
				var p scoring.Preview
				convey.So(json.Unmarshal([]byte(out), &p), convey.ShouldBeNil)
				convey.So(p, convey.ShouldResemble, want)
			})
		})

		convey.Convey("When run with a JSON answers file in the API field names", func() {
			path := filepath.Join(dir, "answers.json")
			convey.So(os.WriteFile(path, []byte(`{
  "workFocus": "люди",
  "selectedAreas": ["a", "b"],
  "skills": "SQL",
  "learningPlan": "курсы",
  "freeText": "ничего",
  "values": {"impact": 80}
}`), 0o600), convey.ShouldBeNil)

			st, loadErr := loadAnswers(path)
			out, err := run("preview", path)

			convey.Convey("Then every field is read", func() {
				convey.So(loadErr, convey.ShouldBeNil)
				convey.So(st.WorkFocus, convey.ShouldEqual, survey.FocusPeople)
				convey.So(st.Areas, convey.ShouldResemble, []string{"a", "b"})
				convey.So(st.Skills, convey.ShouldEqual, "SQL")
				convey.So(st.LearningPlan, convey.ShouldEqual, "курсы")
				convey.So(st.FreeText, convey.ShouldEqual, "ничего")
				convey.So(st.Values, convey.ShouldResemble, survey.Values{survey.ValueImpact: 80})

				convey.So(err, convey.ShouldBeNil)
				var p scoring.Preview
				convey.So(json.Unmarshal([]byte(out), &p), convey.ShouldBeNil)
				convey.So(p.Recommendation, convey.ShouldEqual, "Продуктовая роль · главный мотив — impact.")
			})
		})

		convey.Convey("When the file is missing", func() {
			_, err := run("preview", filepath.Join(dir, "nope.yaml"))
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestSessionCommands(t *testing.T) {
	dir := isolateEnv(t)
	storeDir := filepath.Join(dir, "store")
	t.Setenv("DEVBASICS_STORE_DIR", storeDir)

	convey.Convey("Given a store dir holding a user", t, func() {
		ctx := context.Background()
		slot, err := repository.NewFileStore(storeDir)
		convey.So(err, convey.ShouldBeNil)
		raw, err := json.Marshal(model.User{ID: 4, Email: "a@b.co"})
		convey.So(err, convey.ShouldBeNil)
		convey.So(slot.Set(ctx, session.UserSlotKey, raw), convey.ShouldBeNil)

		convey.Convey("When showing the session", func() {
			out, err := run("session", "show")

			convey.Convey("Then the stored user is printed", func() {
				convey.So(err, convey.ShouldBeNil)
				var v types.SessionView
				convey.So(json.Unmarshal([]byte(out), &v), convey.ShouldBeNil)
				convey.So(v.User, convey.ShouldResemble, &model.User{ID: 4, Email: "a@b.co"})
			})
		})

		convey.Convey("When logging out", func() {
			out, err := run("session", "logout")

			convey.Convey("Then the slot is cleared", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out, convey.ShouldContainSubstring, "signed out")
				_, err := slot.Get(ctx, session.UserSlotKey)
				convey.So(err, convey.ShouldEqual, repository.ErrNotFound)
			})
		})
	})
}

func TestSessionCommandsWithoutStoreDir(t *testing.T) {
	isolateEnv(t)

	convey.Convey("Given no store dir", t, func() {
		_, err := run("session", "show")

		convey.Convey("Then the command refuses to run", func() {
			convey.So(err, convey.ShouldEqual, errNoStoreDir)
		})
	})
}

func TestLoginCommand(t *testing.T) {
	dir := isolateEnv(t)
	storeDir := filepath.Join(dir, "store")
	t.Setenv("DEVBASICS_STORE_DIR", storeDir)

	var gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"message":"Аккаунт создан","user":{"id":12,"email":"new@b.co","name":"Аня"}}`)
	}))
	defer upstream.Close()
	t.Setenv("DEVBASICS_API_BASE_URL", upstream.URL)

	convey.Convey("Given the login command in register mode", t, func() {
		out, err := run("session", "login", "--register",
			"--email", "new@b.co", "--password", "secret1", "--name", "Аня")

		convey.Convey("Then the register endpoint is used and the user persists", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(gotPath, convey.ShouldEqual, "/api/auth/register")

			var res session.AuthResult
			convey.So(json.Unmarshal([]byte(out), &res), convey.ShouldBeNil)
			convey.So(res.Message, convey.ShouldEqual, "Аккаунт создан")

			shown, err := run("session", "show")
			convey.So(err, convey.ShouldBeNil)
			convey.So(shown, convey.ShouldContainSubstring, `"email": "new@b.co"`)
		})
	})

	convey.Convey("Given invalid credentials", t, func() {
		_, err := run("session", "login", "--email", "bad", "--password", "1")

		convey.Convey("Then validation fails before any request", func() {
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestMetricsUpdaters(t *testing.T) {
	convey.Convey("Given the metrics updaters", t, func() {
		convey.Convey("Then system metrics update without panicking", func() {
			convey.So(updateSystemMetrics, convey.ShouldNotPanic)
		})

		convey.Convey("Then service metrics update on a stopped service", func() {
			svc := service.New()
			convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
		})

		convey.Convey("Then the updaters stop with their context", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			done := make(chan struct{})
			go func() {
				startSystemMetricsUpdater(ctx)
				startServiceMetricsUpdater(ctx, service.New())
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			convey.So(ctx.Err(), convey.ShouldNotBeNil)
		})
	})
}
