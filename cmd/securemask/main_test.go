package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// run executes the CLI with a missing config file so defaults apply
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}, args...))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestMask_Stdin(t *testing.T) {
	out, _, err := run(t, "public String getName(int id) {\n", "mask", "--lang", "Java")
	if err != nil {
		t.Fatalf("mask error: %v", err)
	}

	want := "public String method1(int id) {\n"
	if out != want {
		t.Errorf("mask output = %q, want %q", out, want)
	}
}

func TestMask_TypeNames(t *testing.T) {
	out, _, err := run(t, "public String getName(int id) {", "mask", "--type-names")
	if err != nil {
		t.Fatalf("mask error: %v", err)
	}

	want := "public Type1 method1(int id) {\n"
	if out != want {
		t.Errorf("mask output = %q, want %q", out, want)
	}
}

func TestMask_FileToFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "Foo.java")
	outPath := filepath.Join(dir, "Foo.masked.java")

	if err := os.WriteFile(in, []byte("class Foo {"), 0o600); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	stdout, _, err := run(t, "", "mask", in, "--output", outPath)
	if err != nil {
		t.Fatalf("mask error: %v", err)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty when --output is set", stdout)
	}

	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if string(got) != "class Class1 {\n" {
		t.Errorf("output file = %q, want %q", got, "class Class1 {\n")
	}
}

func TestMask_Errors(t *testing.T) {
	tests := []struct {
		name    string
		stdin   string
		args    []string
		wantErr string
	}{
		{"empty input", "  \n", []string{"mask"}, "⚠️ error: input code is empty"},
		{"unsupported language", "class Foo {", []string{"mask", "--lang", "Kotlin"}, "⚠️ error: Kotlin not supported"},
		{"missing file", "", []string{"mask", "/nonexistent/Foo.java"}, "⚠️ error: failed to read /nonexistent/Foo.java"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut, err := run(t, tt.stdin, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if out != "" {
				t.Errorf("stdout = %q, want empty", out)
			}
			if !strings.Contains(errOut, tt.wantErr) {
				t.Errorf("stderr = %q, want it to contain %q", errOut, tt.wantErr)
			}
		})
	}
}

func TestLanguages(t *testing.T) {
	out, _, err := run(t, "", "languages")
	if err != nil {
		t.Fatalf("languages error: %v", err)
	}
	if out != "Java (default)\n" {
		t.Errorf("languages output = %q, want %q", out, "Java (default)\n")
	}
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "", "version")
	if err != nil {
		t.Fatalf("version error: %v", err)
	}
	if !strings.HasPrefix(out, "Secure Mask dev\n") {
		t.Errorf("version output = %q", out)
	}
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  type: etcd\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	var errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", path, "languages"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&errOut)

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error for invalid config")
	}
	if !strings.Contains(errOut.String(), "failed to load configuration") {
		t.Errorf("stderr = %q", errOut.String())
	}
}
