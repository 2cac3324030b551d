package thrift

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpumuk/thrift-rewrite/internal/rewrite"
	"github.com/kpumuk/thrift-rewrite/internal/syntax"
)

const sampleIDL = `namespace go example.users

include "shared.thrift"

typedef i64 UserID

const list<string> ROLES = ["admin", "user"];

enum Status {
  ACTIVE = 1,
  BANNED = -2
}

struct User {
  1: required UserID id,
  2: optional string email = "" (go.tag = "email"),
  3: map<string, Status> flags;
}

service Users extends shared.Base {
  User get(1: UserID id, 2: bool fresh) throws (1: NotFound nf),
  oneway void ping()
}
`

func parseSample(t *testing.T, src string) *syntax.Tree {
	t.Helper()
	tree, err := Parse(context.Background(), []byte(src), ParseOptions{URI: "file:///sample.thrift"})
	require.NoError(t, err)
	require.False(t, tree.HasErrors(), "diagnostics: %+v", tree.Diagnostics)
	return tree
}

func kinds(tree *syntax.Tree, ids []syntax.NodeID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, tree.KindName(id))
	}
	return out
}

func TestParseDocument(t *testing.T) {
	t.Parallel()

	tree := parseSample(t, sampleIDL)
	assert.Equal(t, "file:///sample.thrift", tree.URI)

	members := tree.List(tree.Root, PropMembers)
	assert.Equal(t, []string{"Namespace", "Include", "Typedef", "Const", "Enum", "Struct", "Service"}, kinds(tree, members))

	ns := members[0]
	assert.Equal(t, "go", tree.Scalar(tree.Child(ns, PropScope), PropText))
	assert.Equal(t, "example.users", tree.Scalar(tree.Child(ns, PropName), PropText))
	assert.Equal(t, "namespace go example.users", string(tree.Text(ns)))

	assert.Equal(t, `"shared.thrift"`, tree.Scalar(members[1], PropPath))

	constant := members[3]
	assert.Equal(t, ";", tree.Scalar(constant, PropSeparator))
	assert.Equal(t, `const list<string> ROLES = ["admin", "user"];`, string(tree.Text(constant)))
	assert.Len(t, tree.List(tree.Child(constant, PropValue), PropItems), 2)
}

func TestParseEnumValues(t *testing.T) {
	t.Parallel()

	tree := parseSample(t, sampleIDL)
	enum := tree.List(tree.Root, PropMembers)[4]
	values := tree.List(enum, PropValues)
	require.Len(t, values, 2)
	assert.Equal(t, "ACTIVE = 1,", string(tree.Text(values[0])))
	assert.Equal(t, ",", tree.Scalar(values[0], PropSeparator))
	assert.Equal(t, "-2", tree.Scalar(tree.Child(values[1], PropValue), PropText))
	assert.Empty(t, tree.Scalar(values[1], PropSeparator))
}

func TestParseStructFieldsOwnSeparators(t *testing.T) {
	t.Parallel()

	tree := parseSample(t, sampleIDL)
	user := tree.List(tree.Root, PropMembers)[5]
	assert.Equal(t, "User", tree.Scalar(user, PropName))

	fields := tree.List(user, PropFields)
	require.Len(t, fields, 3)

	id := fields[0]
	assert.Equal(t, "1: required UserID id,", string(tree.Text(id)))
	assert.Equal(t, "1", tree.Scalar(tree.Child(id, PropID), PropText))
	assert.Equal(t, "required", tree.Scalar(id, PropRequiredness))
	assert.Equal(t, "TypeRef", tree.KindName(tree.Child(id, PropType)))
	assert.Equal(t, "id", tree.Scalar(id, PropName))
	assert.Equal(t, ",", tree.Scalar(id, PropSeparator))

	email := fields[1]
	assert.Equal(t, `""`, tree.Scalar(tree.Child(email, PropDefault), PropText))
	annotations := tree.List(email, PropAnnotations)
	require.Len(t, annotations, 1)
	assert.Equal(t, "go.tag", tree.Scalar(tree.Child(annotations[0], PropKey), PropText))
	assert.Equal(t, `"email"`, tree.Scalar(tree.Child(annotations[0], PropValue), PropText))

	flags := tree.Child(fields[2], PropType)
	assert.Equal(t, "MapType", tree.KindName(flags))
	assert.Equal(t, "map<string, Status>", string(tree.Text(flags)))
	assert.Equal(t, ";", tree.Scalar(fields[2], PropSeparator))
}

func TestParseFunctionParamsLeaveCommasToList(t *testing.T) {
	t.Parallel()

	tree := parseSample(t, sampleIDL)
	svc := tree.List(tree.Root, PropMembers)[6]
	assert.Equal(t, "shared.Base", tree.Scalar(tree.Child(svc, PropExtends), PropName))

	fns := tree.List(svc, PropFunctions)
	require.Len(t, fns, 2)

	get := fns[0]
	params := tree.List(get, PropParams)
	require.Len(t, params, 2)
	assert.Equal(t, "1: UserID id", string(tree.Text(params[0])))
	for _, p := range params {
		assert.Empty(t, tree.Scalar(p, PropSeparator))
	}
	assert.Len(t, tree.List(get, PropThrows), 1)
	assert.Equal(t, ",", tree.Scalar(get, PropSeparator))

	ping := fns[1]
	assert.Equal(t, "oneway", tree.Scalar(ping, PropOneway))
	assert.Equal(t, "void", tree.Scalar(tree.Child(ping, PropReturnType), PropName))
	assert.Empty(t, tree.List(ping, PropParams))
	assert.Equal(t, "oneway void ping()", string(tree.Text(ping)))
}

func TestParseParentLinks(t *testing.T) {
	t.Parallel()

	tree := parseSample(t, sampleIDL)
	tree.Walk(tree.Root, func(id syntax.NodeID) bool {
		for _, c := range tree.ChildNodeIDs(id) {
			assert.Equal(t, id, tree.NodeByID(c).Parent, "parent of %s", tree.KindName(c))
		}
		return true
	})
}

func TestParseReportsSyntaxErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
	}{
		{name: "missing brace", src: "struct A {\n  1: i32 a\n"},
		{name: "stray token", src: "} struct A {}\n"},
		{name: "type annotation", src: "typedef list<i32> (cpp.template = \"x\") Ints\n"},
		{name: "lexer error", src: "struct A { 1: string a = \"unterminated }\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tree, err := Parse(context.Background(), []byte(tt.src), ParseOptions{})
			require.NoError(t, err)
			assert.True(t, tree.HasErrors())

			err = CheckRewritable(tree)
			var unsafe *ErrUnsafeToRewrite
			require.True(t, AsUnsafeToRewrite(err, &unsafe), "err = %v", err)
			assert.Equal(t, UnsafeReasonSyntaxErrors, unsafe.Reason)
		})
	}
}

func TestCheckRewritableInvalidUTF8(t *testing.T) {
	t.Parallel()

	tree, err := Parse(context.Background(), []byte("struct A {}\n// \xff\n"), ParseOptions{})
	require.NoError(t, err)
	err = CheckRewritable(tree)
	var unsafe *ErrUnsafeToRewrite
	require.True(t, AsUnsafeToRewrite(err, &unsafe))
	assert.Equal(t, UnsafeReasonInvalidUTF8, unsafe.Reason)
	assert.True(t, IsErrUnsafeToRewrite(err))
}

func TestParseHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Parse(ctx, []byte("struct A {}"), ParseOptions{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestParseFragment(t *testing.T) {
	t.Parallel()

	tree := parseSample(t, sampleIDL)
	b := syntax.NewBuilder(tree)

	field, err := ParseFragment(b, KindField, `4: optional list<string> tags = [] (go.tag = "tags");`)
	require.NoError(t, err)
	n := tree.NodeByID(field)
	assert.False(t, n.IsOriginal())
	assert.Equal(t, "tags", tree.Scalar(field, PropName))
	assert.Equal(t, "optional", tree.Scalar(field, PropRequiredness))
	assert.Equal(t, ";", tree.Scalar(field, PropSeparator))
	assert.Equal(t, "ListType", tree.KindName(tree.Child(field, PropType)))

	fn, err := ParseFragment(b, KindFunction, "void remove(1: UserID id) throws (1: NotFound nf)")
	require.NoError(t, err)
	assert.Len(t, tree.List(fn, PropParams), 1)
	assert.Len(t, tree.List(fn, PropThrows), 1)

	typ, err := ParseFragment(b, KindTypeRef, "shared.Thing")
	require.NoError(t, err)
	assert.Equal(t, "shared.Thing", tree.Scalar(typ, PropName))

	value, err := ParseFragment(b, KindIntLiteral, "-42")
	require.NoError(t, err)
	assert.Equal(t, "-42", tree.Scalar(value, PropText))
}

func TestParseFragmentErrors(t *testing.T) {
	t.Parallel()

	tree := parseSample(t, sampleIDL)
	b := syntax.NewBuilder(tree)

	_, err := ParseFragment(b, KindField, "1: i32 a b")
	require.Error(t, err)

	_, err = ParseFragment(b, KindStruct, "enum E {}")
	require.ErrorContains(t, err, "want Struct")

	_, err = ParseFragment(b, KindMapEntry, "1: 2")
	require.ErrorContains(t, err, "unsupported kind")
}

func TestFind(t *testing.T) {
	t.Parallel()

	tree := parseSample(t, sampleIDL)
	v := rewrite.NewView(tree, nil)

	id, err := FindSelector(v, "User.email")
	require.NoError(t, err)
	assert.Equal(t, "Field", tree.KindName(id))
	assert.Equal(t, "email", NameOf(v, id))

	id, err = Find(v, "Users", "get", "fresh")
	require.NoError(t, err)
	assert.Equal(t, "bool", tree.Scalar(tree.Child(id, PropType), PropName))

	id, err = FindSelector(v, "Status.BANNED")
	require.NoError(t, err)
	assert.Equal(t, "EnumValue", tree.KindName(id))

	_, err = FindSelector(v, "User.missing")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorContains(t, err, "User.missing")
}

func TestLayoutsCoverSchema(t *testing.T) {
	t.Parallel()

	l := Layouts()
	for _, k := range Schema.Kinds() {
		layout := l.For(k)
		require.NotNil(t, layout, Schema.KindName(k))
		assert.NotNil(t, layout.Render, Schema.KindName(k))
	}
}
