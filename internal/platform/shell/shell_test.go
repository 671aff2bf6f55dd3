package shell

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsops/vsbootstrap/internal/logging"
)

func TestArgv(t *testing.T) {
	t.Parallel()
	nonRoot := &ExecRunner{Geteuid: func() int { return 1000 }}
	root := &ExecRunner{Geteuid: func() int { return 0 }}

	tests := []struct {
		name   string
		runner *ExecRunner
		cmd    Command
		want   []string
	}{
		{
			name:   "unprivileged",
			runner: nonRoot,
			cmd:    Command{Name: "helm", Args: []string{"version"}},
			want:   []string{"helm", "version"},
		},
		{
			name:   "privileged without env",
			runner: nonRoot,
			cmd:    Command{Name: "apt-get", Args: []string{"install", "-y", "maven"}, Privileged: true},
			want:   []string{"sudo", "-n", "apt-get", "install", "-y", "maven"},
		},
		{
			name:   "privileged with env",
			runner: nonRoot,
			cmd:    Command{Name: "sh", Args: []string{"/tmp/k3s.sh"}, Env: []string{"INSTALL_K3S_EXEC=--write-kubeconfig-mode 644"}, Privileged: true},
			want:   []string{"sudo", "-n", "env", "INSTALL_K3S_EXEC=--write-kubeconfig-mode 644", "sh", "/tmp/k3s.sh"},
		},
		{
			name:   "privileged as root",
			runner: root,
			cmd:    Command{Name: "systemctl", Args: []string{"enable", "--now", "docker"}, Privileged: true},
			want:   []string{"systemctl", "enable", "--now", "docker"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.runner.Argv(tt.cmd))
		})
	}
}

func TestDisplay_MasksSecrets(t *testing.T) {
	t.Parallel()
	got := Display([]string{"env", "VSB_DB_PASSWORD=hunter2", "VSB_DOMAIN=verify.example.com", "sh", "install all.sh"})
	assert.Equal(t, "env VSB_DB_PASSWORD=redacted VSB_DOMAIN=verify.example.com sh 'install all.sh'", got)
	assert.NotContains(t, got, "hunter2")
}

func TestTail(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "no output", Tail("\n\n", 3))
	assert.Equal(t, "b | c", Tail("a\nb\n\nc\n", 2))
}

func TestExecRunner_Run(t *testing.T) {
	var logs bytes.Buffer
	ctx := logging.Writer(context.Background(), &logs)
	r := NewExecRunner()

	out, err := r.Run(ctx, Command{Name: "sh", Args: []string{"-c", "echo hello; echo $VSB_TEST"}, Env: []string{"VSB_TEST=world"}})
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld\n", out)
	assert.Contains(t, logs.String(), "msg=hello")
	assert.Contains(t, logs.String(), "source=sh")
}

func TestExecRunner_RunStdin(t *testing.T) {
	ctx := logging.Discard(context.Background())
	out, err := NewExecRunner().Run(ctx, Command{Name: "sh", Args: []string{"-c", "read a; echo got-$a"}, Stdin: strings.NewReader("y\n")})
	require.NoError(t, err)
	assert.Equal(t, "got-y\n", out)
}

func TestExecRunner_RunFailure(t *testing.T) {
	ctx := logging.Discard(context.Background())
	_, err := NewExecRunner().Run(ctx, Command{Name: "sh", Args: []string{"-c", "echo boom >&2; exit 3"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 3")
	assert.Contains(t, err.Error(), "boom")
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "#!/bin/sh\necho installed\n")
	}))
	defer srv.Close()
	ctx := logging.Discard(context.Background())

	path, err := Download(ctx, srv.URL+"/install.sh")
	require.NoError(t, err)
	defer os.Remove(path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "echo installed")

	_, err = Download(ctx, srv.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

type recordingRunner struct {
	cmds []Command
}

func (r *recordingRunner) Run(_ context.Context, cmd Command) (string, error) {
	r.cmds = append(r.cmds, cmd)
	return "", nil
}

func TestRunScript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "#!/bin/sh\n")
	}))
	defer srv.Close()

	rec := &recordingRunner{}
	err := RunScript(logging.Discard(context.Background()), rec, srv.URL, true, []string{"A=1"}, "--flag")
	require.NoError(t, err)
	require.Len(t, rec.cmds, 1)
	assert.Equal(t, "sh", rec.cmds[0].Name)
	assert.Equal(t, "--flag", rec.cmds[0].Args[1])
	assert.True(t, rec.cmds[0].Privileged)
	assert.Equal(t, []string{"A=1"}, rec.cmds[0].Env)
}
