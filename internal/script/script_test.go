package script_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpumuk/thrift-rewrite/internal/script"
	"github.com/kpumuk/thrift-rewrite/internal/thrift"
)

const usersIDL = `enum Status {
  ACTIVE = 1,
  BANNED = 2
}

struct User {
  1: i64 id;
  2: string name;
}

service Users {
  User get(1: i64 id)
}
`

func run(t *testing.T, src, yaml string) (string, error) {
	t.Helper()
	sc, err := script.Parse([]byte(yaml))
	require.NoError(t, err)
	tree, err := thrift.Parse(context.Background(), []byte(src), thrift.ParseOptions{})
	require.NoError(t, err)
	sess, err := thrift.NewSession(tree)
	require.NoError(t, err)
	if _, err := sc.Record(context.Background(), sess); err != nil {
		return "", err
	}
	out, err := sess.Apply(context.Background())
	return string(out), err
}

func TestRecordScript(t *testing.T) {
	t.Parallel()

	sc, err := script.Parse([]byte(`
edits:
  - op: insert
    into: Status
    code: DELETED = 3
  - op: insert
    into: User
    position: after:id
    code: "3: optional string email"
  - op: rename
    target: User
    name: Account
  - op: remove
    target: Users.get.id
  - op: set
    target: User.id
    property: requiredness
    value: required
`))
	require.NoError(t, err)

	tree, err := thrift.Parse(context.Background(), []byte(usersIDL), thrift.ParseOptions{})
	require.NoError(t, err)
	sess, err := thrift.NewSession(tree)
	require.NoError(t, err)
	groups, err := sc.Record(context.Background(), sess)
	require.NoError(t, err)

	out, err := sess.Apply(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `enum Status {
  ACTIVE = 1,
  BANNED = 2,
  DELETED = 3
}

struct Account {
  1: required i64 id;
  3: optional string email;
  2: string name;
}

service Users {
  User get()
}
`, string(out))

	names := make([]string, 0, len(groups))
	for _, g := range groups {
		names = append(names, g.Name())
		assert.False(t, g.IsEmpty(), "group %s has no edits", g.Name())
	}
	assert.Equal(t, []string{
		"insert Status",
		"insert User",
		"rename User",
		"remove Users.get.id",
		"set User.id",
	}, names)
}

func TestInsertParameterDropsSeparator(t *testing.T) {
	t.Parallel()

	out, err := run(t, usersIDL, `
edits:
  - op: insert
    into: Users.get
    code: "2: bool fresh,"
`)
	require.NoError(t, err)
	assert.Contains(t, out, "  User get(1: i64 id, 2: bool fresh)\n")
}

func TestMoveFieldBetweenStructs(t *testing.T) {
	t.Parallel()

	out, err := run(t, "struct A {\n  1: i32 a;\n  2: i32 b;\n}\n\nstruct B {\n  1: i32 c;\n}\n", `
edits:
  - op: move
    target: A.b
    into: B
`)
	require.NoError(t, err)
	assert.Equal(t, "struct A {\n  1: i32 a;\n}\n\nstruct B {\n  1: i32 c;\n  2: i32 b;\n}\n", out)
}

func TestMoveFieldRunBetweenStructs(t *testing.T) {
	t.Parallel()

	out, err := run(t, "struct A {\n  1: i32 a;\n  2: i32 b;\n}\n\nstruct B {\n  1: i32 x;\n}\n", `
edits:
  - op: move
    target: A.a
    through: A.b
    into: B
`)
	require.NoError(t, err)
	assert.Contains(t, out, "struct B {\n  1: i32 x;\n  1: i32 a;\n  2: i32 b;\n}")
	assert.NotContains(t, out, "struct A {\n  1: i32 a;")
}

func TestCopyFieldRunKeepsSource(t *testing.T) {
	t.Parallel()

	out, err := run(t, "struct A {\n  1: i32 a;\n  2: i32 b;\n}\n\nstruct B {\n  1: i32 x;\n}\n", `
edits:
  - op: copy
    target: A.a
    through: A.b
    into: B
`)
	require.NoError(t, err)
	assert.Equal(t, "struct A {\n  1: i32 a;\n  2: i32 b;\n}\n\nstruct B {\n  1: i32 x;\n  1: i32 a;\n  2: i32 b;\n}\n", out)
}

func TestSetDefaultValue(t *testing.T) {
	t.Parallel()

	out, err := run(t, usersIDL, `
edits:
  - op: set
    target: User.name
    property: default
    value: '"anonymous"'
`)
	require.NoError(t, err)
	assert.Contains(t, out, "  2: string name = \"anonymous\";\n")
}

func TestRecordErrors(t *testing.T) {
	t.Parallel()

	_, err := run(t, usersIDL, `
edits:
  - op: remove
    target: User.missing
`)
	require.ErrorIs(t, err, thrift.ErrNotFound)
	require.ErrorContains(t, err, "edit 1 (remove User.missing)")

	_, err = run(t, usersIDL, `
edits:
  - op: rename
    target: Users.get.id
    name: key
`)
	require.NoError(t, err)

	_, err = run(t, usersIDL, `
edits:
  - op: insert
    into: User
    code: "not a field"
`)
	require.Error(t, err)
}

func TestParseRejectsInvalidScripts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{name: "unknown op", yaml: "edits:\n  - op: explode\n    target: A\n", want: `unknown op "explode"`},
		{name: "missing target", yaml: "edits:\n  - op: remove\n", want: "remove needs target"},
		{name: "missing code", yaml: "edits:\n  - op: insert\n    into: A\n", want: "insert needs code"},
		{name: "bad position", yaml: "edits:\n  - op: move\n    target: A.b\n    position: middle\n", want: `invalid position "middle"`},
		{name: "bad index", yaml: "edits:\n  - op: copy\n    target: A.b\n    position: index:-1\n", want: "invalid position index"},
		{name: "unknown key", yaml: "edits:\n  - op: remove\n    selector: A\n", want: "selector"},
		{name: "through on remove", yaml: "edits:\n  - op: remove\n    target: A.a\n    through: A.b\n", want: "remove does not take through"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := script.Parse([]byte(tt.yaml))
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestParseEmptyScript(t *testing.T) {
	t.Parallel()

	sc, err := script.Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, sc.Edits)
}

func TestSetReturnTypeAcceptsSnakeCase(t *testing.T) {
	t.Parallel()

	out, err := run(t, usersIDL, `
edits:
  - op: set
    target: Users.get
    property: return_type
    value: list<User>
`)
	require.NoError(t, err)
	assert.Contains(t, out, "  list<User> get(1: i64 id)\n")
}
