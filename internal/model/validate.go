package model

import (
	"path/filepath"
	"regexp"
	"strings"
)

// urlPattern matches the link heuristic used to tell a pasted URL from plain text.
var urlPattern = regexp.MustCompile(`^(https?://|www\.)\S+`)

// DefaultExtensionCategories is the built-in allow-list mapping a dropped
// file's extension to a category. vault.yaml may override/extend this via
// config.ExtensionRulesFile.
var DefaultExtensionCategories = map[string]Category{
	"pdf":  CategoryDocuments,
	"doc":  CategoryDocuments,
	"docx": CategoryDocuments,
	"rtf":  CategoryDocuments,
	"md":   CategoryDocuments,
	"txt":  CategoryDocuments,

	"csv": CategoryCSV,
	"tsv": CategoryCSV,
	"xls": CategoryCSV,
	"xlsx": CategoryCSV,

	"png":  CategoryImages,
	"jpg":  CategoryImages,
	"jpeg": CategoryImages,
	"gif":  CategoryImages,
	"webp": CategoryImages,
	"bmp":  CategoryImages,

	"mp4":  CategoryVideos,
	"mov":  CategoryVideos,
	"webm": CategoryVideos,
	"mkv":  CategoryVideos,
}

// DefaultRejectExtensions is the built-in reject list: audio, executables,
// archives, system files.
var DefaultRejectExtensions = map[string]string{
	"mp3":  "audio files aren't supported",
	"wav":  "audio files aren't supported",
	"ogg":  "audio files aren't supported",
	"flac": "audio files aren't supported",
	"exe":  "executables aren't supported",
	"msi":  "executables aren't supported",
	"app":  "executables aren't supported",
	"sh":   "executables aren't supported",
	"bat":  "executables aren't supported",
	"zip":  "archives aren't supported",
	"tar":  "archives aren't supported",
	"gz":   "archives aren't supported",
	"7z":   "archives aren't supported",
	"rar":  "archives aren't supported",
	"dll":  "system files aren't supported",
	"sys":  "system files aren't supported",
	"ini":  "system files aren't supported",
}

// ExtensionRules is the resolved (built-in + vault.yaml overlay) rule set
// consulted by the overlay controller and, independently, by the engine.
type ExtensionRules struct {
	Allow map[string]Category
	Deny  map[string]string
}

// NewExtensionRules merges overlay onto the built-in defaults. A nil/zero
// overlay yields the defaults unchanged.
func NewExtensionRules(allowOverlay map[string]string, denyOverlay []string) ExtensionRules {
	allow := make(map[string]Category, len(DefaultExtensionCategories)+len(allowOverlay))
	for ext, cat := range DefaultExtensionCategories {
		allow[ext] = cat
	}
	for ext, cat := range allowOverlay {
		allow[strings.ToLower(strings.TrimPrefix(ext, "."))] = Category(cat)
	}
	deny := make(map[string]string, len(DefaultRejectExtensions)+len(denyOverlay))
	for ext, reason := range DefaultRejectExtensions {
		deny[ext] = reason
	}
	for _, ext := range denyOverlay {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		if _, already := deny[ext]; !already {
			deny[ext] = "this file type isn't supported"
		}
	}
	return ExtensionRules{Allow: allow, Deny: deny}
}

func extOf(path string) string {
	ext := filepath.Ext(path)
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// ClassifyPath derives a category for a dropped/ingested file path. ok is
// false (with reason set) when the extension is on the reject list or is
// simply not on the allow list; an unknown extension is conservatively
// treated the same as a rejection since the allow-list is closed.
func (r ExtensionRules) ClassifyPath(path string) (cat Category, ok bool, reason string) {
	ext := extOf(path)
	if reason, rejected := r.Deny[ext]; rejected {
		return "", false, reason
	}
	if cat, allowed := r.Allow[ext]; allowed {
		return cat, true, ""
	}
	return "", false, "this file type isn't supported"
}

// IsURL reports whether text matches the link heuristic.
func IsURL(text string) bool {
	return urlPattern.MatchString(strings.TrimSpace(text))
}

// codeKeywords are keywords that tip text classification toward "code".
var codeKeywords = []string{
	"func ", "def ", "class ", "import ", "package ", "const ", "var ", "let ",
	"return ", "#include", "public static", "SELECT ", "=>", "fn ",
}

var codeStructuralChars = []string{"{", "}", ";", "()", "=>", "->", "::"}

// ideaKeywords nudge ambiguous short notes toward "ideas", the fallback
// category when nothing else fires.
var ideaKeywords = []string{"idea:", "what if", "todo:", "maybe we", "brainstorm"}

// ClassifyText chooses among {code, notes, ideas} for pasted/typed text that
// isn't a URL. Ideas is the fallback.
func ClassifyText(text string) Category {
	lower := strings.ToLower(text)

	structuralHits := 0
	for _, s := range codeStructuralChars {
		if strings.Contains(text, s) {
			structuralHits++
		}
	}
	for _, kw := range codeKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return CategoryCode
		}
	}
	if structuralHits >= 2 {
		return CategoryCode
	}

	for _, kw := range ideaKeywords {
		if strings.Contains(lower, kw) {
			return CategoryIdeas
		}
	}

	// Longer, multi-line prose reads as a note; short fragments default to
	// an idea.
	if len(text) > 140 || strings.Count(text, "\n") >= 2 {
		return CategoryNotes
	}
	return CategoryIdeas
}
