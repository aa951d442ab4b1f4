package lang

import (
	"context"
	"testing"
)

func TestForExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want string
	}{
		{".js", "javascript"},
		{".mjs", "javascript"},
		{".CJS", "javascript"},
		{".py", ""},
		{".ts", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			t.Parallel()
			got := ForExtension(tt.ext)
			if got != tt.want {
				t.Errorf("ForExtension(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestLanguagesRegistered(t *testing.T) {
	t.Parallel()

	js, ok := Languages[JavaScript]
	if !ok {
		t.Fatal("javascript language not registered")
	}
	if js.GetLanguage() == nil {
		t.Error("javascript language is nil")
	}
}

func TestNewParser(t *testing.T) {
	t.Parallel()

	p := Languages[JavaScript].NewParser()
	if p == nil {
		t.Fatal("NewParser returned nil")
	}
	tree, err := p.ParseCtx(context.Background(), nil, []byte("class A {}\n"))
	if err != nil {
		t.Fatalf("ParseCtx: %v", err)
	}
	defer tree.Close()
	if got := tree.RootNode().Type(); got != "program" {
		t.Errorf("root = %q, want program", got)
	}
}

func TestGetTagQuery(t *testing.T) {
	t.Parallel()

	q, err := Languages[JavaScript].GetTagQuery()
	if err != nil {
		t.Fatalf("GetTagQuery: %v", err)
	}
	if q == nil {
		t.Fatal("query is nil")
	}
}

func TestNamedChildrenSkipsComments(t *testing.T) {
	t.Parallel()

	src := []byte("f(a, /* note */ b)\n")
	tree, err := Languages[JavaScript].NewParser().ParseCtx(context.Background(), nil, src)
	if err != nil {
		t.Fatalf("ParseCtx: %v", err)
	}
	defer tree.Close()

	call := tree.RootNode().NamedChild(0).NamedChild(0)
	args := NamedChildren(call.ChildByFieldName("arguments"))
	if len(args) != 2 {
		t.Fatalf("got %d args, want 2", len(args))
	}
	if got := NodeText(args[1], src); got != "b" {
		t.Errorf("second arg = %q, want b", got)
	}
}
