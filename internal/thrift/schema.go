// Package thrift binds the rewrite engine to Thrift IDL: a node schema, a
// recovering parser that builds syntax trees over the lossless lexer, and the
// layouts that tell the engine where each property lives in the source.
package thrift

import "github.com/kpumuk/thrift-rewrite/internal/syntax"

// Property names shared by several kinds.
const (
	PropMembers      = "Members"
	PropPath         = "Path"
	PropScope        = "Scope"
	PropName         = "Name"
	PropType         = "Type"
	PropValue        = "Value"
	PropValues       = "Values"
	PropFields       = "Fields"
	PropExtends      = "Extends"
	PropFunctions    = "Functions"
	PropOneway       = "Oneway"
	PropReturnType   = "ReturnType"
	PropParams       = "Params"
	PropThrows       = "Throws"
	PropID           = "ID"
	PropRequiredness = "Requiredness"
	PropDefault      = "Default"
	PropAnnotations  = "Annotations"
	PropSeparator    = "Separator"
	PropKey          = "Key"
	PropElem         = "Elem"
	PropText         = "Text"
	PropItems        = "Items"
	PropEntries      = "Entries"
)

// Schema describes every Thrift node kind.
var Schema = syntax.NewSchema("thrift")

// Node kinds.
var (
	KindDocument = Schema.Define("Document", syntax.List(PropMembers))

	KindInclude    = Schema.Define("Include", syntax.Scalar(PropPath))
	KindCppInclude = Schema.Define("CppInclude", syntax.Scalar(PropPath))
	KindNamespace  = Schema.Define("Namespace",
		syntax.Child(PropScope),
		syntax.Child(PropName),
		syntax.List(PropAnnotations),
	)

	KindTypedef = Schema.Define("Typedef",
		syntax.Child(PropType),
		syntax.Scalar(PropName),
		syntax.List(PropAnnotations),
		syntax.Scalar(PropSeparator),
	)
	KindConst = Schema.Define("Const",
		syntax.Child(PropType),
		syntax.Scalar(PropName),
		syntax.Child(PropValue),
		syntax.Scalar(PropSeparator),
	)

	KindEnum = Schema.Define("Enum",
		syntax.Scalar(PropName),
		syntax.List(PropValues),
		syntax.List(PropAnnotations),
	)
	KindEnumValue = Schema.Define("EnumValue",
		syntax.Scalar(PropName),
		syntax.Child(PropValue),
		syntax.List(PropAnnotations),
		syntax.Scalar(PropSeparator),
	)

	KindStruct    = defineStructLike("Struct")
	KindUnion     = defineStructLike("Union")
	KindException = defineStructLike("Exception")

	KindService = Schema.Define("Service",
		syntax.Scalar(PropName),
		syntax.Child(PropExtends),
		syntax.List(PropFunctions),
		syntax.List(PropAnnotations),
	)
	KindFunction = Schema.Define("Function",
		syntax.Scalar(PropOneway),
		syntax.Child(PropReturnType),
		syntax.Scalar(PropName),
		syntax.List(PropParams),
		syntax.List(PropThrows),
		syntax.List(PropAnnotations),
		syntax.Scalar(PropSeparator),
	)
	KindField = Schema.Define("Field",
		syntax.Child(PropID),
		syntax.Scalar(PropRequiredness),
		syntax.Child(PropType),
		syntax.Scalar(PropName),
		syntax.Child(PropDefault),
		syntax.List(PropAnnotations),
		syntax.Scalar(PropSeparator),
	)

	KindBaseType = Schema.Define("BaseType", syntax.Scalar(PropName))
	KindTypeRef  = Schema.Define("TypeRef", syntax.Scalar(PropName))
	KindMapType  = Schema.Define("MapType", syntax.Child(PropKey), syntax.Child(PropValue))
	KindListType = Schema.Define("ListType", syntax.Child(PropElem))
	KindSetType  = Schema.Define("SetType", syntax.Child(PropElem))

	KindIdentifier    = Schema.Define("Identifier", syntax.Scalar(PropText))
	KindIntLiteral    = Schema.Define("IntLiteral", syntax.Scalar(PropText))
	KindDoubleLiteral = Schema.Define("DoubleLiteral", syntax.Scalar(PropText))
	KindStringLiteral = Schema.Define("StringLiteral", syntax.Scalar(PropText))
	KindConstList     = Schema.Define("ConstList", syntax.List(PropItems))
	KindConstMap      = Schema.Define("ConstMap", syntax.List(PropEntries))
	KindMapEntry      = Schema.Define("MapEntry", syntax.Child(PropKey), syntax.Child(PropValue))

	KindAnnotation = Schema.Define("Annotation", syntax.Child(PropKey), syntax.Child(PropValue))
)

func defineStructLike(name string) syntax.Kind {
	return Schema.Define(name,
		syntax.Scalar(PropName),
		syntax.List(PropFields),
		syntax.List(PropAnnotations),
	)
}

// IsDefinition reports whether k is a top-level document member.
func IsDefinition(k syntax.Kind) bool {
	switch k {
	case KindInclude, KindCppInclude, KindNamespace, KindTypedef, KindConst,
		KindEnum, KindStruct, KindUnion, KindException, KindService:
		return true
	default:
		return false
	}
}

// IsHeader reports whether k is an include or namespace declaration.
func IsHeader(k syntax.Kind) bool {
	return k == KindInclude || k == KindCppInclude || k == KindNamespace
}

// IsType reports whether k names a field type.
func IsType(k syntax.Kind) bool {
	switch k {
	case KindBaseType, KindTypeRef, KindMapType, KindListType, KindSetType:
		return true
	default:
		return false
	}
}

// IsConstValue reports whether k is a constant value expression.
func IsConstValue(k syntax.Kind) bool {
	switch k {
	case KindIdentifier, KindIntLiteral, KindDoubleLiteral, KindStringLiteral, KindConstList, KindConstMap:
		return true
	default:
		return false
	}
}

// MembersProperty returns the list property that holds the members of a
// definition of kind k, or "" when k has none.
func MembersProperty(k syntax.Kind) string {
	switch k {
	case KindDocument:
		return PropMembers
	case KindEnum:
		return PropValues
	case KindStruct, KindUnion, KindException:
		return PropFields
	case KindService:
		return PropFunctions
	default:
		return ""
	}
}
