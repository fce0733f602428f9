package runner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadTasksJSON(t *testing.T) {
	tasks, err := LoadTasks(strings.NewReader(`[
	  {"annotator":"0","user_id":"7","instruction":"deposit","actions":[{"name":"deposit","kwargs":{"account_id":"A1","amount":5}}],"outputs":["105"],"fail_fast":true}
	]`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tasks) != 1 || tasks[0].UserID != "7" || !tasks[0].FailFast || tasks[0].Actions[0].Kwargs["amount"] != 5.0 {
		t.Fatalf("unexpected tasks %+v", tasks)
	}
}

func TestLoadTasksYAML(t *testing.T) {
	src := `
- user_id: "7"
  actions:
    - name: verify_user
      kwargs: {user_id: 7}
    - name: get_balance
      kwargs:
        account_id: A1
  outputs: ["100"]
`
	tasks, err := LoadTasks(strings.NewReader(src))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tasks) != 1 || len(tasks[0].Actions) != 2 {
		t.Fatalf("unexpected tasks %+v", tasks)
	}
	args, err := tasks[0].Actions[0].Arguments()
	if err != nil || string(args) != `{"user_id":7}` {
		t.Fatalf("arguments = %s %v", args, err)
	}
}

func TestLoadTasksErrors(t *testing.T) {
	for _, src := range []string{`[{"actions":[{"kwargs":{}}]}]`, `[{"actions": 3}]`, "- actions: [: bad"} {
		if _, err := LoadTasks(strings.NewReader(src)); err == nil {
			t.Fatalf("expected error for %q", src)
		}
	}
	if tasks, err := LoadTasks(strings.NewReader("  ")); err != nil || tasks != nil {
		t.Fatalf("empty input = %v %v", tasks, err)
	}
}

func TestLoadTaskFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	if err := os.WriteFile(path, []byte("- actions: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	tasks, err := LoadTaskFile(path)
	if err != nil || len(tasks) != 1 {
		t.Fatalf("load file: %v %v", tasks, err)
	}
	if _, err := LoadTaskFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestActionArgumentsDefaultToEmptyObject(t *testing.T) {
	args, err := Action{Name: "list"}.Arguments()
	if err != nil || string(args) != "{}" {
		t.Fatalf("arguments = %s %v", args, err)
	}
}
