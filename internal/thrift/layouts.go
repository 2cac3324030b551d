package thrift

import (
	"sync"

	"github.com/kpumuk/thrift-rewrite/internal/lexer"
	"github.com/kpumuk/thrift-rewrite/internal/rewrite"
	"github.com/kpumuk/thrift-rewrite/internal/syntax"
)

// Layouts returns the layout table of every Thrift kind.
func Layouts() *rewrite.Layouts { return layouts() }

var layouts = sync.OnceValue(buildLayouts)

var (
	nameSlot = rewrite.Slot{
		Property: PropName,
		Policy:   rewrite.SlotToken,
		Tokens:   []lexer.TokenKind{lexer.TokenIdentifier},
	}
	separatorSlot = rewrite.Slot{
		Property: PropSeparator,
		Policy:   rewrite.SlotTrailing,
		Tokens:   []lexer.TokenKind{lexer.TokenComma, lexer.TokenSemi},
	}
	annotationsSlot = rewrite.Slot{
		Property:   PropAnnotations,
		Policy:     rewrite.SlotOptionalList,
		Open:       lexer.TokenLParen,
		Close:      lexer.TokenRParen,
		Separator:  ", ",
		Keyword:    " (",
		EndKeyword: ")",
	}
	textSlot = rewrite.Slot{Property: PropText, Policy: rewrite.SlotLeaf}
)

func required(prop string) rewrite.Slot {
	return rewrite.Slot{Property: prop, Policy: rewrite.SlotRequired}
}

func optional(prop, prefix string) rewrite.Slot {
	return rewrite.Slot{Property: prop, Policy: rewrite.SlotOptional, Prefix: prefix}
}

// block is a braced member list indented one level from its owner.
func block(prop string, tight func(prev, next syntax.Kind) bool) rewrite.Slot {
	return rewrite.Slot{
		Property:       prop,
		Policy:         rewrite.SlotParagraph,
		Open:           lexer.TokenLBrace,
		Close:          lexer.TokenRBrace,
		SeparatorLines: -1,
		Lead:           1,
		Indent:         1,
		Tight:          tight,
	}
}

func commaList(prop string, openTok, closeTok lexer.TokenKind) rewrite.Slot {
	return rewrite.Slot{Property: prop, Policy: rewrite.SlotList, Open: openTok, Close: closeTok, Separator: ", "}
}

func buildLayouts() *rewrite.Layouts {
	l := rewrite.NewLayouts(Schema)

	l.Define(KindDocument, rewrite.Layout{
		Slots: []rewrite.Slot{{
			Property:       PropMembers,
			Policy:         rewrite.SlotParagraph,
			SeparatorLines: -1,
			Tight:          sameDirectiveGroup,
		}},
		Render: renderDocument,
	})

	pathSlot := rewrite.Slot{Property: PropPath, Policy: rewrite.SlotToken, Tokens: []lexer.TokenKind{lexer.TokenStringLiteral}}
	l.Define(KindInclude, rewrite.Layout{
		Keyword: lexer.TokenKwInclude,
		Slots:   []rewrite.Slot{pathSlot},
		Render:  renderInclude("include "),
	})
	l.Define(KindCppInclude, rewrite.Layout{
		Keyword: lexer.TokenKwCppInclude,
		Slots:   []rewrite.Slot{pathSlot},
		Render:  renderInclude("cpp_include "),
	})
	l.Define(KindNamespace, rewrite.Layout{
		Keyword: lexer.TokenKwNamespace,
		Slots:   []rewrite.Slot{required(PropScope), required(PropName), annotationsSlot},
		Render:  renderNamespace,
	})

	l.Define(KindTypedef, rewrite.Layout{
		Keyword: lexer.TokenKwTypedef,
		Slots:   []rewrite.Slot{required(PropType), nameSlot, annotationsSlot, separatorSlot},
		Render:  renderTypedef,
	})
	l.Define(KindConst, rewrite.Layout{
		Keyword: lexer.TokenKwConst,
		Slots:   []rewrite.Slot{required(PropType), nameSlot, required(PropValue), separatorSlot},
		Render:  renderConst,
	})

	l.Define(KindEnum, rewrite.Layout{
		Keyword: lexer.TokenKwEnum,
		Slots:   []rewrite.Slot{nameSlot, block(PropValues, sameKind), annotationsSlot},
		Render:  renderEnum,
	})
	l.Define(KindEnumValue, rewrite.Layout{
		Slots:  []rewrite.Slot{nameSlot, optional(PropValue, " = "), annotationsSlot, separatorSlot},
		Render: renderEnumValue,
	})

	for kind, kw := range structKeywords {
		l.Define(kind, rewrite.Layout{
			Keyword: kw,
			Slots:   []rewrite.Slot{nameSlot, block(PropFields, sameKind), annotationsSlot},
			Render:  renderStructLike,
		})
	}

	l.Define(KindService, rewrite.Layout{
		Keyword: lexer.TokenKwService,
		Slots: []rewrite.Slot{
			nameSlot,
			optional(PropExtends, " extends "),
			block(PropFunctions, nil),
			annotationsSlot,
		},
		Render: renderService,
	})
	l.Define(KindFunction, rewrite.Layout{
		Slots: []rewrite.Slot{
			{Property: PropOneway, Policy: rewrite.SlotModifier, Keywords: []string{"oneway", "async"}},
			required(PropReturnType),
			nameSlot,
			commaList(PropParams, lexer.TokenLParen, lexer.TokenRParen),
			{
				Property:   PropThrows,
				Policy:     rewrite.SlotOptionalList,
				Open:       lexer.TokenLParen,
				Close:      lexer.TokenRParen,
				Separator:  ", ",
				Keyword:    " throws (",
				EndKeyword: ")",
			},
			annotationsSlot,
			separatorSlot,
		},
		Render: renderFunction,
	})
	l.Define(KindField, rewrite.Layout{
		Slots: []rewrite.Slot{
			{Property: PropID, Policy: rewrite.SlotLeading, Terminator: lexer.TokenColon, Suffix: ": "},
			{Property: PropRequiredness, Policy: rewrite.SlotModifier, Keywords: []string{"required", "optional"}},
			required(PropType),
			nameSlot,
			optional(PropDefault, " = "),
			annotationsSlot,
			separatorSlot,
		},
		Render: renderField,
	})

	leafName := []rewrite.Slot{{Property: PropName, Policy: rewrite.SlotLeaf}}
	l.Define(KindBaseType, rewrite.Layout{Slots: leafName, Render: renderScalar(PropName)})
	l.Define(KindTypeRef, rewrite.Layout{Slots: leafName, Render: renderScalar(PropName)})
	l.Define(KindMapType, rewrite.Layout{
		Keyword: lexer.TokenKwMap,
		Slots:   []rewrite.Slot{required(PropKey), required(PropValue)},
		Render:  renderMapType,
	})
	l.Define(KindListType, rewrite.Layout{
		Keyword: lexer.TokenKwList,
		Slots:   []rewrite.Slot{required(PropElem)},
		Render:  renderContainer("list"),
	})
	l.Define(KindSetType, rewrite.Layout{
		Keyword: lexer.TokenKwSet,
		Slots:   []rewrite.Slot{required(PropElem)},
		Render:  renderContainer("set"),
	})

	for _, kind := range []syntax.Kind{KindIdentifier, KindIntLiteral, KindDoubleLiteral, KindStringLiteral} {
		l.Define(kind, rewrite.Layout{Slots: []rewrite.Slot{textSlot}, Render: renderScalar(PropText)})
	}
	l.Define(KindConstList, rewrite.Layout{
		Slots:  []rewrite.Slot{commaList(PropItems, lexer.TokenLBracket, lexer.TokenRBracket)},
		Render: renderConstList,
	})
	l.Define(KindConstMap, rewrite.Layout{
		Slots:  []rewrite.Slot{commaList(PropEntries, lexer.TokenLBrace, lexer.TokenRBrace)},
		Render: renderConstMap,
	})
	l.Define(KindMapEntry, rewrite.Layout{
		Slots:  []rewrite.Slot{required(PropKey), required(PropValue)},
		Render: renderMapEntry,
	})
	l.Define(KindAnnotation, rewrite.Layout{
		Slots:  []rewrite.Slot{required(PropKey), optional(PropValue, " = ")},
		Render: renderAnnotation,
	})
	return l
}

var structKeywords = map[syntax.Kind]lexer.TokenKind{
	KindStruct:    lexer.TokenKwStruct,
	KindUnion:     lexer.TokenKwUnion,
	KindException: lexer.TokenKwException,
}

// sameDirectiveGroup keeps includes, namespaces and typedefs on consecutive
// lines when they follow a member of their own group.
func sameDirectiveGroup(prev, next syntax.Kind) bool {
	g := directiveGroup(prev)
	return g != "" && g == directiveGroup(next)
}

func directiveGroup(k syntax.Kind) string {
	switch k {
	case KindInclude, KindCppInclude:
		return "include"
	case KindNamespace:
		return "namespace"
	case KindTypedef:
		return "typedef"
	default:
		return ""
	}
}

func sameKind(prev, next syntax.Kind) bool { return prev == next }
