package framework

import "strings"

// SyntaxTag is the logical language a request resolves to.
type SyntaxTag string

const (
	SyntaxNone    SyntaxTag = ""
	SyntaxClojure SyntaxTag = "clojure"
	SyntaxJSON    SyntaxTag = "json"
	SyntaxPython  SyntaxTag = "python"
	SyntaxDart    SyntaxTag = "dart"
)

// scopeTable maps declared syntax scopes and editor language ids to tags.
var scopeTable = map[string]SyntaxTag{
	"source.edn":                   SyntaxClojure,
	"source.clojure":               SyntaxClojure,
	"source.clojure.clojurescript": SyntaxClojure,
	"source.json":                  SyntaxJSON,
	"source.python":                SyntaxPython,
	"source.dart":                  SyntaxDart,

	"edn":           SyntaxClojure,
	"clojure":       SyntaxClojure,
	"clojurescript": SyntaxClojure,
	"json":          SyntaxJSON,
	"python":        SyntaxPython,
	"dart":          SyntaxDart,
}

// ResolveSyntax maps a declared scope to its tag. Unknown scopes yield SyntaxNone.
func ResolveSyntax(scope string) SyntaxTag {
	return scopeTable[strings.ToLower(strings.TrimSpace(scope))]
}

// SupportedSyntaxes lists every tag with a default formatter.
func SupportedSyntaxes() []SyntaxTag {
	return []SyntaxTag{SyntaxClojure, SyntaxJSON, SyntaxPython, SyntaxDart}
}

// Valid reports whether the tag is one of the closed set.
func (t SyntaxTag) Valid() bool {
	switch t {
	case SyntaxClojure, SyntaxJSON, SyntaxPython, SyntaxDart:
		return true
	default:
		return false
	}
}

// SyntaxForExtension infers a tag from a file extension such as ".py".
func SyntaxForExtension(ext string) SyntaxTag {
	switch strings.TrimPrefix(strings.ToLower(ext), ".") {
	case "clj", "cljs", "cljc", "edn", "bb":
		return SyntaxClojure
	case "json":
		return SyntaxJSON
	case "py", "pyi":
		return SyntaxPython
	case "dart":
		return SyntaxDart
	default:
		return SyntaxNone
	}
}
